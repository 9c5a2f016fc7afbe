package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/observability"
	"github.com/dvth-dev/VN-Alpha-Scan/internal/storage"
)

func (h *Handlers) listCompetitions(c *gin.Context) {
	list, err := h.competitions.List(c.Request.Context())
	observability.RecordCompetitionOp("list", err)
	if err != nil {
		h.logger.Error().Err(err).Msg("list competitions failed")
		respondError(c, http.StatusInternalServerError, codeInternal, "list competitions failed")
		return
	}
	respondOK(c, list)
}

func (h *Handlers) upsertCompetition(c *gin.Context) {
	var comp domain.Competition
	if err := c.ShouldBindJSON(&comp); err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	err := h.competitions.Upsert(c.Request.Context(), &comp)
	observability.RecordCompetitionOp("upsert", err)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(c, http.StatusBadRequest, codeBadRequest, "alphaId is required")
			return
		}
		h.logger.Error().Err(err).Str("alpha_id", comp.AlphaID).Msg("upsert competition failed")
		respondError(c, http.StatusInternalServerError, codeInternal, "upsert competition failed")
		return
	}

	h.manager.InvalidateCompetitions()
	respondOK(c, comp)
}

type updateTimesRequest struct {
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
}

func (h *Handlers) updateCompetitionTimes(c *gin.Context) {
	alphaID := c.Param("alphaId")

	var req updateTimesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	err := h.competitions.UpdateTimes(c.Request.Context(), alphaID, req.StartTime, req.EndTime)
	observability.RecordCompetitionOp("update_times", err)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, codeNotFound, "competition not found")
			return
		}
		h.logger.Error().Err(err).Str("alpha_id", alphaID).Msg("update competition times failed")
		respondError(c, http.StatusInternalServerError, codeInternal, "update competition failed")
		return
	}

	h.manager.InvalidateCompetitions()
	respondOK(c, gin.H{"alphaId": alphaID})
}

func (h *Handlers) deleteCompetition(c *gin.Context) {
	alphaID := c.Param("alphaId")

	err := h.competitions.Delete(c.Request.Context(), alphaID)
	observability.RecordCompetitionOp("delete", err)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, codeNotFound, "competition not found")
			return
		}
		h.logger.Error().Err(err).Str("alpha_id", alphaID).Msg("delete competition failed")
		respondError(c, http.StatusInternalServerError, codeInternal, "delete competition failed")
		return
	}

	h.manager.InvalidateCompetitions()
	respondOK(c, gin.H{"alphaId": alphaID})
}
