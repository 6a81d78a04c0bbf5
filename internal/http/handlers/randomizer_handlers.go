package handlers

import (
	"net/http"
)

const randomizerSource = "randomizer"

// RandomIntHandler godoc
// @Summary Random integer between min and max
// @Tags randomizer
// @Produce json
// @Param min query integer true "Lower bound, inclusive"
// @Param max query integer true "Upper bound, inclusive"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope "Invalid range"
// @Failure 429 {object} Envelope "Rate limit exceeded"
// @Router /api/randomizer/v1/random-int-number [get]
func (h *Handlers) RandomIntHandler(w http.ResponseWriter, r *http.Request) {
	lo, hi, ok := queryIntRange(r)
	if !ok {
		h.fail(w, http.StatusBadRequest, msgRangeIntegers)
		return
	}
	if lo > hi {
		h.fail(w, http.StatusBadRequest, msgRangeOrder)
		return
	}

	query := RangeQuery[int64]{Min: lo, Max: hi}
	n, err := h.deps.Randomizer.Int(lo, hi)
	if err != nil {
		h.extractionFailed(w, r, randomizerSource, err, query, msgRandomFailed)
		return
	}

	h.respond(w, http.StatusOK, Envelope{Success: true, Number: n, Type: "int", Query: query})
}

// RandomFloatHandler godoc
// @Summary Random decimal between min and max
// @Description The result has at most as many decimals as max is written with.
// @Tags randomizer
// @Produce json
// @Param min query number true "Lower bound, inclusive"
// @Param max query number true "Upper bound, inclusive"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope "Invalid range"
// @Failure 429 {object} Envelope "Rate limit exceeded"
// @Router /api/randomizer/v1/random-float-number [get]
func (h *Handlers) RandomFloatHandler(w http.ResponseWriter, r *http.Request) {
	lo, hi, decimals, ok := queryFloatRange(r)
	if !ok {
		h.fail(w, http.StatusBadRequest, msgRangeFloats)
		return
	}
	if lo > hi {
		h.fail(w, http.StatusBadRequest, msgRangeOrder)
		return
	}

	query := RangeQuery[Float]{Min: Float(lo), Max: Float(hi)}
	v, err := h.deps.Randomizer.Float(lo, hi, decimals)
	if err != nil {
		h.extractionFailed(w, r, randomizerSource, err, query, msgRandomFailed)
		return
	}

	h.respond(w, http.StatusOK, Envelope{Success: true, Number: Float(v), Type: "float", Query: query})
}
