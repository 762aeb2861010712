package quote

import "errors"

var (
	ErrRateLimited       = errors.New("quote rate limit reached")
	ErrNetwork           = errors.New("quote request failed")
	ErrHTTPStatus        = errors.New("quote service returned an error status")
	ErrMalformedResponse = errors.New("malformed quote response")
)
