package interfaces

// -----------------------------------------------------------------------------
// INetworkManager is the HTTP access contract used by price feeds. The
// concrete implementation layers retries, proxy rotation and a circuit
// breaker behind this single call.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to the specified URL with parameters.
	// Returns the response body as bytes or an error.
	Get(url string, params map[string]string) ([]byte, error)
}
