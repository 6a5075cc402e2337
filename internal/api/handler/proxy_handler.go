package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
)

// RouteResolver maps an inbound path to a route and its downstream path.
type RouteResolver interface {
	Resolve(path string) (domain.Route, string, error)
}

// hopHeaders are connection-scoped and never relayed. Content-Length is
// recomputed by the server as the body is streamed.
var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Content-Length":      {},
}

// ProxyHandler relays unauthenticated pass-through traffic to downstream services.
type ProxyHandler struct {
	routes    RouteResolver
	forwarder ports.Forwarder
	log       zerolog.Logger
}

func NewProxyHandler(routes RouteResolver, forwarder ports.Forwarder, log zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{routes: routes, forwarder: forwarder, log: log}
}

// Forward handles every method on the routed prefixes (/channels, /messages,
// /threads, /files). Downstream responses, including 4xx/5xx, are relayed
// as-is; only transport failures become gateway errors.
//
// @Summary      Forward a request to a downstream service
// @Tags         gateway
// @Produce      json
// @Success      200  "downstream response, relayed verbatim"
// @Failure      502  {object}  ErrorResponse
// @Failure      504  {object}  ErrorResponse
// @Router       /channels/{path} [get]
func (h *ProxyHandler) Forward(c echo.Context) error {
	req := c.Request()

	route, path, err := h.routes.Resolve(req.URL.EscapedPath())
	if err != nil {
		return err
	}

	resp, err := h.forwarder.Forward(req.Context(), ports.OutboundRequest{
		Service:  route.Service,
		Method:   req.Method,
		URL:      route.BaseURL + path,
		RawQuery: req.URL.RawQuery,
		Header:   req.Header,
		Body:     req.Body,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dst := c.Response().Header()
	for key, values := range resp.Header {
		if _, hop := hopHeaders[http.CanonicalHeaderKey(key)]; hop {
			continue
		}
		dst[key] = append([]string(nil), values...)
	}

	c.Response().WriteHeader(resp.StatusCode)
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		// Status is already on the wire; all that is left is to log.
		h.log.Error().Err(err).
			Str("service", route.Service).
			Str("path", path).
			Msg("relaying downstream body failed")
	}
	return nil
}
