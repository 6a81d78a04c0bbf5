// Package aliexpress turns an AliExpress item page into a models.Product.
package aliexpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rogerio-castellano/everytools-api/internal/fetch"
	"github.com/rogerio-castellano/everytools-api/internal/models"
)

var (
	ErrScriptNotFound   = errors.New("runParams script not found")
	ErrMalformedPayload = errors.New("malformed runParams payload")
	ErrFieldMissing     = errors.New("required product field missing")
)

const (
	BaseURL      = "https://www.aliexpress.us"
	publicURLFmt = "https://www.aliexpress.com/item/%d.html"
	source       = "aliexpress"
)

var runParamsRe = regexp.MustCompile(`window\.runParams\s*=\s*\{`)

// Fetcher is the part of fetch.Client the wrapper depends on.
type Fetcher interface {
	Get(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

type Wrapper struct {
	f       Fetcher
	baseURL string
	cookie  string
}

// New builds a Wrapper. cookie pins the storefront locale and currency.
func New(f Fetcher, baseURL, cookie string) *Wrapper {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Wrapper{f: f, baseURL: strings.TrimRight(baseURL, "/"), cookie: cookie}
}

func (w *Wrapper) Source() string { return source }

// Product fetches the item page for id and extracts the product record.
func (w *Wrapper) Product(ctx context.Context, id int64) (*models.Product, error) {
	req := fetch.Request{
		Source:          source,
		URL:             fmt.Sprintf("%s/item/%d.html", w.baseURL, id),
		FollowRedirects: true,
	}
	if w.cookie != "" {
		req.Headers = map[string]string{"Cookie": w.cookie}
	}
	resp, err := w.f.Get(ctx, req)
	if err != nil {
		return nil, err
	}
	return Parse(id, resp.Body)
}

// Parse extracts the product record from an item page.
func Parse(id int64, page []byte) (*models.Product, error) {
	blob, err := extractRunParams(page)
	if err != nil {
		return nil, err
	}
	if err := validate(runParamsSchema, "", blob); err != nil {
		return nil, err
	}
	var rp runParams
	if err := json.Unmarshal(blob, &rp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	skuJSON := []byte(rp.PriceComponent.SkuJSON)
	if !json.Valid(skuJSON) {
		return nil, fmt.Errorf("%w: priceComponent.skuJson is not JSON", ErrMalformedPayload)
	}
	if err := validate(skuSchema, "priceComponent.skuJson", skuJSON); err != nil {
		return nil, err
	}
	var skus []sku
	if err := json.Unmarshal(skuJSON, &skus); err != nil {
		return nil, fmt.Errorf("%w: priceComponent.skuJson: %v", ErrMalformedPayload, err)
	}

	store := rp.StoreHeaderComponent.StoreHeaderResult
	tabs := store.TabList
	val := skus[0].SkuVal

	storeNum, err := rp.SellerComponent.StoreNum.toInt64()
	if err != nil {
		return nil, fmt.Errorf("%w: sellerComponent.storeNum: %v", ErrMalformedPayload, err)
	}
	stock, err := val.AvailQuantity.toInt64()
	if err != nil {
		return nil, fmt.Errorf("%w: priceComponent.skuJson availQuantity: %v", ErrMalformedPayload, err)
	}

	return &models.Product{
		StoreInfo: models.StoreInfo{
			ID:             storeNum,
			Name:           store.StoreName,
			HomepageURL:    "https:" + tabs[0].URL,
			ProductsURL:    "https:" + tabs[1].URL,
			PromotionsURL:  "https:" + tabs[2].URL,
			BestSellersURL: "https:" + tabs[3].URL,
			ReviewsURL:     "https:" + tabs[4].URL,
			LogoURL:        rp.SellerComponent.StoreLogo,
		},
		ProductInfo: models.ProductInfo{
			ID:             id,
			URL:            fmt.Sprintf(publicURLFmt, id),
			Name:           rp.ProductInfoComponent.Subject,
			DescriptionURL: rp.ProductDescComponent.DescriptionURL,
			AvailableStock: stock,
		},
		ProductPrice: models.ProductPrice{
			CurrencyCode:       val.SkuAmount.Currency,
			OriginalValue:      round2(float64(val.SkuAmount.Value)),
			DiscountPercentage: round2(float64(val.Discount)),
			FinalPrice:         round2(float64(val.SkuActivityAmount.Value)),
		},
	}, nil
}

// extractRunParams returns the object assigned to window.runParams.data. The
// assignment is a JS literal, so the inner object is cut out by braces: from
// the second "{" up to the last "}" exclusive.
func extractRunParams(page []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScriptNotFound, err)
	}

	var text string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := s.Text(); runParamsRe.MatchString(t) {
			text = t
			return false
		}
		return true
	})
	if text == "" {
		return nil, ErrScriptNotFound
	}

	data := strings.ReplaceAll(strings.TrimSpace(text), "\n", "")
	first := strings.Index(data, "{")
	second := strings.Index(data[first+1:], "{")
	if second < 0 {
		return nil, fmt.Errorf("%w: no inner object", ErrMalformedPayload)
	}
	start := first + 1 + second
	end := strings.LastIndex(data, "}")
	if end <= start {
		return nil, fmt.Errorf("%w: unbalanced braces", ErrMalformedPayload)
	}

	blob := []byte(data[start:end])
	if !json.Valid(blob) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedPayload)
	}
	return blob, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// number accepts a JSON number or a numeric string. NaN and infinities are
// rejected even when quoted.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("not a number: %s", b)
	}
	*n = number(v)
	return nil
}

// toInt64 truncates n, failing when it does not fit.
func (n number) toInt64() (int64, error) {
	v := math.Trunc(float64(n))
	// 2^63 is exact in float64, anything at or above it overflows
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, fmt.Errorf("%v out of int64 range", float64(n))
	}
	return int64(v), nil
}

type runParams struct {
	PriceComponent struct {
		SkuJSON string `json:"skuJson"`
	} `json:"priceComponent"`
	StoreHeaderComponent struct {
		StoreHeaderResult struct {
			StoreName string `json:"storeName"`
			TabList   []struct {
				URL string `json:"url"`
			} `json:"tabList"`
		} `json:"storeHeaderResult"`
	} `json:"storeHeaderComponent"`
	SellerComponent struct {
		StoreNum  number `json:"storeNum"`
		StoreLogo string `json:"storeLogo"`
	} `json:"sellerComponent"`
	ProductInfoComponent struct {
		Subject string `json:"subject"`
	} `json:"productInfoComponent"`
	ProductDescComponent struct {
		DescriptionURL string `json:"descriptionUrl"`
	} `json:"productDescComponent"`
}

type amount struct {
	Currency string `json:"currency"`
	Value    number `json:"value"`
}

type sku struct {
	SkuVal struct {
		AvailQuantity     number `json:"availQuantity"`
		Discount          number `json:"discount"`
		SkuAmount         amount `json:"skuAmount"`
		SkuActivityAmount amount `json:"skuActivityAmount"`
	} `json:"skuVal"`
}
