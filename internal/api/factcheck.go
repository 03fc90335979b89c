package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/factlens/factlens/internal/auth"
	"github.com/factlens/factlens/internal/gemini"
	"github.com/factlens/factlens/internal/pipeline"
	"github.com/factlens/factlens/internal/quota"
	"github.com/factlens/factlens/pkg/models"
)

// handleFactCheck runs a credibility assessment for the posted content.
// Quota is consumed before the pipeline starts; a denied request costs
// nothing.
func (s *Server) handleFactCheck(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetUserFromContext(r.Context())

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dec, err := s.quota.Consume(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to check usage limits")
		return
	}
	if !dec.Allowed {
		respondJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error":    "daily fact-check limit reached",
			"limit":    dec.Limit,
			"used":     dec.Used,
			"resetsAt": dec.ResetsAt.Format(time.RFC3339),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.AnalyzeTimeout)
	defer cancel()

	report, err := s.analyzer.Analyze(ctx, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrEmptyContent):
			respondError(w, http.StatusBadRequest, "content is required")
		case errors.Is(err, pipeline.ErrContentTooLong):
			respondError(w, http.StatusBadRequest, "content exceeds maximum length")
		case errors.Is(err, gemini.ErrServiceUnavailable):
			respondError(w, http.StatusServiceUnavailable, "analysis service is temporarily unavailable")
		case errors.Is(err, context.DeadlineExceeded):
			respondError(w, http.StatusGatewayTimeout, "analysis timed out")
		default:
			respondError(w, http.StatusInternalServerError, "failed to analyze content")
		}
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// handleLimits reports the caller's current usage without consuming any.
func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetUserFromContext(r.Context())

	dec, err := s.quota.Usage(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read usage limits")
		return
	}

	limits := models.UsageLimits{
		Plan:     dec.Plan,
		Used:     dec.Used,
		ResetsAt: dec.ResetsAt.Format(time.RFC3339),
	}
	if dec.Plan != quota.PlanPro {
		limits.Limit = &dec.Limit
	}

	respondJSON(w, http.StatusOK, limits)
}
