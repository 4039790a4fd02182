package aliexpress

import "errors"

// Client input errors. The server boundary maps these to 400 responses;
// everything else surfaces as a server error.
var (
	ErrMissingURL         = errors.New("url is required")
	ErrMissingCredentials = errors.New("appKey, appSecret and trackingId are required")
	ErrUnsupportedDomain  = errors.New("not a valid AliExpress URL")
	ErrNoProductID        = errors.New("could not extract a product id from the URL")
)

// IsBadRequest reports whether err originates from invalid caller input
// rather than an upstream or internal failure.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrMissingURL) ||
		errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrUnsupportedDomain) ||
		errors.Is(err, ErrNoProductID)
}
