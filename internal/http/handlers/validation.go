package handlers

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/rogerio-castellano/everytools-api/internal/randomizer"
)

const (
	msgIDAlphanumeric = "The id parameter is required and must be alphanumeric."
	msgIDNumeric      = "The id parameter is required and must be numeric."
	msgRangeIntegers  = "The min and max parameters are required and must be integers."
	msgRangeFloats    = "The min and max parameters are required and must be floats."
	msgRangeOrder     = "The min parameter must be less than the max parameter."

	msgQueryNotFound    = "Query not found or invalid. Please check your query and try again."
	msgRandomFailed     = "An error occurred while generating the random number. Please check your query and try again."
	msgMaintenance      = "This endpoint is under maintenance. Please try again later."
	msgEndpointMissing  = "Endpoint not found. Please check your endpoint and try again."
	msgMethodNotAllowed = "Method not allowed. Please check your request method and try again."
	msgRateLimited      = "You have exceeded the rate limit. Please try again later."
	msgInternal         = "An internal error occurred. Please try again later."
)

var (
	alphanumericID = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	driveID        = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	numericID      = regexp.MustCompile(`^[0-9]+$`)
	integerValue   = regexp.MustCompile(`^-?[0-9]+$`)
	floatValue     = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
)

func queryID(r *http.Request, pattern *regexp.Regexp) (string, bool) {
	id := r.URL.Query().Get("id")
	return id, id != "" && pattern.MatchString(id)
}

func queryProductID(r *http.Request) (int64, bool) {
	id := r.URL.Query().Get("id")
	if !numericID.MatchString(id) {
		return 0, false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil
}

func queryIntRange(r *http.Request) (lo, hi int64, ok bool) {
	q := r.URL.Query()
	minStr, maxStr := q.Get("min"), q.Get("max")
	if !integerValue.MatchString(minStr) || !integerValue.MatchString(maxStr) {
		return 0, 0, false
	}
	lo, errMin := strconv.ParseInt(minStr, 10, 64)
	hi, errMax := strconv.ParseInt(maxStr, 10, 64)
	return lo, hi, errMin == nil && errMax == nil
}

// queryFloatRange also returns the number of decimals written in max.
func queryFloatRange(r *http.Request) (lo, hi float64, decimals int, ok bool) {
	q := r.URL.Query()
	minStr, maxStr := q.Get("min"), q.Get("max")
	if !floatValue.MatchString(minStr) || !floatValue.MatchString(maxStr) {
		return 0, 0, 0, false
	}
	lo, errMin := strconv.ParseFloat(minStr, 64)
	hi, errMax := strconv.ParseFloat(maxStr, 64)
	if errMin != nil || errMax != nil {
		return 0, 0, 0, false
	}
	return lo, hi, randomizer.DecimalPlaces(maxStr), true
}
