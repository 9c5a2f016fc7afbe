package server

import "github.com/gin-gonic/gin"

// Response envelope shared by every JSON endpoint, matching the
// upstream bapi shape so the frontend handles both uniformly.
const codeOK = "000000"

// Error codes for the envelope.
const (
	codeBadRequest   = "BAD_REQUEST"
	codeUnauthorized = "UNAUTHORIZED"
	codeNotFound     = "NOT_FOUND"
	codeRateLimit    = "RATE_LIMIT"
	codeUpstream     = "UPSTREAM_ERROR"
	codeInternal     = "INTERNAL_ERROR"
)

type envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(200, envelope{Code: codeOK, Message: "success", Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, envelope{Code: code, Message: message})
}
