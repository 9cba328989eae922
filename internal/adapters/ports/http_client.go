package ports

import "net/http"

// HTTPClient is a minimal HTTP client interface for outbound calls.
// Gateway status checks and account upgrades are faked through it in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
