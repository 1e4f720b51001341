// Package client implements the Go SDK for the Managed DB HTTP API.
//
// Every method issues exactly one best-effort HTTP request: there is no
// retry, caching, or local persistence. Each request runs under a bounded
// timeout (DefaultHTTPTimeout unless overridden) and honors caller context
// cancellation. Non-2xx responses are surfaced as *APIError carrying the
// upstream status code and decoded error envelope.
//
// Construction:
//
//	cli, err := client.New("http://localhost:8080/api",
//		client.WithHTTPTimeout(10*time.Second),
//		client.WithLogger(logger),
//	)
//
// Required-argument validation happens before any network I/O, so a request
// with missing fields never reaches the wire.
package client
