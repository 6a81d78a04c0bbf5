package models

// Product is the normalised view of an AliExpress listing.
type Product struct {
	StoreInfo    StoreInfo    `json:"store-info"`
	ProductInfo  ProductInfo  `json:"product-info"`
	ProductPrice ProductPrice `json:"product-price"`
}

type StoreInfo struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	HomepageURL    string `json:"homepage-url"`
	ProductsURL    string `json:"products-url"`
	PromotionsURL  string `json:"promotions-url"`
	BestSellersURL string `json:"best-sellers-url"`
	ReviewsURL     string `json:"reviews-url"`
	LogoURL        string `json:"logo-url"`
}

type ProductInfo struct {
	ID             int64  `json:"id"`
	URL            string `json:"url"`
	Name           string `json:"name"`
	DescriptionURL string `json:"description-url"`
	AvailableStock int64  `json:"available-stock"`
}

// ProductPrice values are rounded to two decimals.
type ProductPrice struct {
	CurrencyCode       string  `json:"currency-code"`
	OriginalValue      float64 `json:"original-value"`
	DiscountPercentage float64 `json:"discount-percentage"`
	FinalPrice         float64 `json:"final-price"`
}
