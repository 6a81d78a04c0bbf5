package handlers

import (
	"net/http"
)

// AliExpressProductHandler godoc
// @Summary AliExpress product as friendly JSON
// @Description Store, product and price details scraped from the item page.
// @Tags wrapper
// @Produce json
// @Param id query string true "AliExpress item id (numeric)"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope "Invalid id"
// @Failure 404 {object} Envelope "Product not found"
// @Failure 429 {object} Envelope "Rate limit exceeded"
// @Router /api/wrapper/v1/aliexpress-product [get]
func (h *Handlers) AliExpressProductHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := queryProductID(r)
	if !ok {
		h.fail(w, http.StatusBadRequest, msgIDNumeric)
		return
	}

	query := IDQuery[int64]{ID: id}
	product, err := h.deps.AliExpress.Product(r.Context(), id)
	if err != nil {
		h.extractionFailed(w, r, h.deps.AliExpress.Source(), err, query, msgQueryNotFound)
		return
	}

	h.respond(w, http.StatusOK, Envelope{
		Success: true,
		Output:  DataOutput{Data: product},
		Query:   query,
	})
}
