package server

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/exchange"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/observability"
)

// proxy is a cached pass-through to the exchange. Successful bodies
// are cached per endpoint; everything else is relayed uncached.
func (h *Handlers) proxy(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		respondError(c, http.StatusBadRequest, codeBadRequest, "endpoint is required")
		return
	}

	params := url.Values{}
	for key, values := range c.Request.URL.Query() {
		if key == "endpoint" {
			continue
		}
		for _, v := range values {
			params.Add(key, v)
		}
	}

	// Encode sorts keys, so equivalent requests share a cache entry
	key := endpoint + "?" + params.Encode()

	if body, ok := h.cache.Get(key); ok {
		observability.RecordCacheRequest(endpoint, "hit")
		c.Data(http.StatusOK, "application/json", body)
		return
	}
	observability.RecordCacheRequest(endpoint, "miss")

	status, body, err := h.exchange.Raw(c.Request.Context(), endpoint, params)
	if err != nil {
		if errors.Is(err, exchange.ErrUnknownEndpoint) {
			respondError(c, http.StatusBadRequest, codeBadRequest, "unknown endpoint")
			return
		}
		h.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("proxy upstream failed")
		respondError(c, http.StatusBadGateway, codeUpstream, "upstream request failed")
		return
	}

	switch {
	case status == http.StatusTooManyRequests:
		respondError(c, http.StatusTooManyRequests, codeRateLimit, "upstream rate limit")
	case status != http.StatusOK:
		respondError(c, http.StatusBadGateway, codeUpstream, "upstream error")
	default:
		h.cache.Put(key, body, h.endpointTTL(endpoint))
		c.Data(http.StatusOK, "application/json", body)
	}
}

// endpointTTL maps a proxy endpoint to its cache lifetime. The token
// list barely changes, tickers go stale in seconds.
func (h *Handlers) endpointTTL(endpoint string) time.Duration {
	switch endpoint {
	case exchange.EndpointTokenList:
		return h.ttl.TokenListTTL
	case exchange.EndpointTicker:
		return h.ttl.TickerTTL
	case exchange.EndpointKlines:
		return h.ttl.KlinesTTL
	default:
		return h.ttl.TickerTTL
	}
}
