package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is used when the request carries no usable limit.
	DefaultLimit = 100
	// MaxLimit caps the number of rows a single page may request.
	MaxLimit = 100
)

// Params holds offset pagination extracted from ?skip= and ?limit=.
type Params struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// DefaultParams returns skip=0, limit=DefaultLimit.
func DefaultParams() Params {
	return Params{Skip: 0, Limit: DefaultLimit}
}

// FromRequest extracts pagination parameters from an HTTP request. Negative
// or non-numeric values fall back to the defaults; limits above MaxLimit are
// clamped.
func FromRequest(r *http.Request) Params {
	return FromQuery(r, DefaultLimit, MaxLimit)
}

// FromQuery is FromRequest with caller-chosen default and maximum limits.
func FromQuery(r *http.Request, defaultLimit, maxLimit int) Params {
	p := Params{Skip: 0, Limit: defaultLimit}
	q := r.URL.Query()

	if skip := q.Get("skip"); skip != "" {
		if v, err := strconv.Atoi(skip); err == nil && v >= 0 {
			p.Skip = v
		}
	}

	if limit := q.Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 {
			p.Limit = min(v, maxLimit)
		}
	}

	return p
}
