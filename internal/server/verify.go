package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type verifyPassRequest struct {
	Password string `json:"password"`
}

// verifyPass checks the admin passphrase. The response carries no
// token; the frontend only needs the yes/no.
func (h *Handlers) verifyPass(c *gin.Context) {
	var req verifyPassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	if !h.gate.Verify(req.Password) {
		respondError(c, http.StatusUnauthorized, codeUnauthorized, "invalid password")
		return
	}
	respondOK(c, gin.H{"valid": true})
}
