package ports

import (
	"context"
	"io"
	"net/http"
)

// OutboundRequest is everything the forwarder needs to replay a client
// request against a downstream service.
type OutboundRequest struct {
	Service  string
	Method   string
	URL      string
	RawQuery string
	Header   http.Header
	Body     io.Reader
}

// Forwarder replays a request downstream. A non-nil error means no response
// was received; downstream 4xx/5xx are returned as ordinary responses.
type Forwarder interface {
	Forward(ctx context.Context, req OutboundRequest) (*http.Response, error)
}
