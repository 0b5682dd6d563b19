package reswirl

import "context"

// Fetcher retrieves raw bytes from URLs.
// Implementations distinguish transport failures (EFETCH) from deadline
// expiry (ETIMEOUT) so callers can report them separately.
type Fetcher interface {
	// Fetch performs a GET against the URL and returns the response body.
	// The context controls timeout and cancellation; a fetch that exceeds
	// its deadline fails with ETIMEOUT rather than returning partial bytes.
	Fetch(ctx context.Context, url string) ([]byte, error)

	// Close releases transport resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}
