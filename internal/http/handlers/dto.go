package handlers

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Envelope is the body of every tool response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Output  any    `json:"output,omitempty"`
	Number  any    `json:"number,omitempty"`
	Type    string `json:"type,omitempty"`
	Query   any    `json:"query,omitempty"`
}

type URLOutput struct {
	URL string `json:"url"`
}

type DataOutput struct {
	Data any `json:"data"`
}

type IDQuery[T string | int64] struct {
	ID T `json:"id"`
}

type RangeQuery[T int64 | Float] struct {
	Min T `json:"min"`
	Max T `json:"max"`
}

type EndpointInfo struct {
	URL         string `json:"url"`
	Alias       string `json:"alias"`
	Description string `json:"description"`
	RateLimit   string `json:"rate_limit"`
	Status      string `json:"status,omitempty"`
}

type IndexResponse struct {
	Message   string                             `json:"message"`
	SourceURL string                             `json:"source_code_url"`
	Docs      string                             `json:"docs_url"`
	Endpoints map[string]map[string]EndpointInfo `json:"endpoints"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis,omitempty"`
}

// Float always encodes with a decimal point or an exponent, so a whole value
// such as 3 is sent as 3.0 and stays distinguishable from an integer.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("unsupported float value %v", v)
	}
	if abs := math.Abs(v); abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
	}
	b := strconv.AppendFloat(nil, v, 'f', -1, 64)
	if !bytes.ContainsRune(b, '.') {
		b = append(b, ".0"...)
	}
	return b, nil
}
