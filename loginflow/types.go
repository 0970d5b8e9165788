package loginflow

import "time"

// CallbackParams are the query parameters the provider sends back to the redirect URL.
type CallbackParams struct {
	Code  string
	State string

	// Set by the provider instead of Code when the user or provider refused the request.
	Error            string
	ErrorDescription string
}

// AuthRedirect is the result of Begin. URL is where the user agent must be sent.
type AuthRedirect struct {
	URL       string
	State     string
	ExpiresAt time.Time
}
