package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// volumeHistory serves archived daily volume for one token. start and
// end are millisecond timestamps; end defaults to the maximum.
func (h *Handlers) volumeHistory(c *gin.Context) {
	if h.history == nil {
		respondError(c, http.StatusServiceUnavailable, codeInternal, "volume history not configured")
		return
	}

	alphaID := c.Query("alphaId")
	if alphaID == "" {
		respondError(c, http.StatusBadRequest, codeBadRequest, "alphaId is required")
		return
	}

	start, err := parseMillis(c.Query("start"), 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, "invalid start")
		return
	}
	end, err := parseMillis(c.Query("end"), int64(1)<<62)
	if err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, "invalid end")
		return
	}

	points, err := h.history.GetByTokenRange(c.Request.Context(), alphaID, start, end)
	if err != nil {
		h.logger.Error().Err(err).Str("alpha_id", alphaID).Msg("volume history query failed")
		respondError(c, http.StatusInternalServerError, codeInternal, "volume history query failed")
		return
	}
	respondOK(c, points)
}

func parseMillis(s string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
