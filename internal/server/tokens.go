package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
)

// maxBatchSymbols bounds one batch request; larger lists should be
// paged by the caller.
const maxBatchSymbols = 20

// tokens serves the merged, sorted display list.
func (h *Handlers) tokens(c *gin.Context) {
	respondOK(c, h.manager.Display(c.Request.Context(), c.Query("search")))
}

type batchRequest struct {
	Symbols []string `json:"symbols"`
}

type batchEntry struct {
	Ticker      *domain.TickerSnapshot `json:"ticker"`
	VolumeStats domain.VolumeStats     `json:"volumeStats"`
}

// tokenDetailsBatch fetches details for up to maxBatchSymbols tokens
// in one round trip. Entries are pair symbols ("ALPHA_118USDT"); bare
// alpha ids are accepted too. The response map is keyed by alpha id,
// and tokens whose ticker fetch fails are absent from it.
func (h *Handlers) tokenDetailsBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		respondError(c, http.StatusBadRequest, codeBadRequest, "symbols must not be empty")
		return
	}
	if len(req.Symbols) > maxBatchSymbols {
		respondError(c, http.StatusBadRequest, codeBadRequest, "too many symbols")
		return
	}

	tokens := make([]domain.TokenDescriptor, 0, len(req.Symbols))
	for _, s := range req.Symbols {
		id := strings.TrimSuffix(s, "USDT")
		if t, ok := h.manager.Descriptor(id); ok {
			tokens = append(tokens, t)
			continue
		}
		// Not in the catalog yet; the pair symbol is derivable anyway
		tokens = append(tokens, domain.TokenDescriptor{AlphaID: id, Symbol: id})
	}

	details := h.manager.FetchBatch(c.Request.Context(), tokens)

	out := make(map[string]batchEntry, len(details))
	for _, d := range details {
		out[d.Token.AlphaID] = batchEntry{
			Ticker:      d.Ticker,
			VolumeStats: d.VolumeStats,
		}
	}
	respondOK(c, out)
}
