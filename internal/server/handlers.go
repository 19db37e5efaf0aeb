package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"news-impact-engine/internal/logger"
	"news-impact-engine/internal/query"
	"news-impact-engine/internal/types"
)

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RefreshResult summarizes an on-demand cycle.
type RefreshResult struct {
	CycleID    string           `json:"cycle_id"`
	Source     string           `json:"source"`
	Articles   int              `json:"articles"`
	Degraded   bool             `json:"degraded"`
	Recoveries []types.Recovery `json:"recoveries,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"status":     "ok",
		"version":    s.opts.Version,
		"ws_clients": s.hub.ClientCount(),
	}
	if s.opts.CacheStats != nil {
		data["cache"] = s.opts.CacheStats()
	}
	if snap := s.pipeline.Latest(); snap != nil {
		data["last_cycle"] = snap.CycleID
		data["published_at"] = snap.PublishedAt
		data["articles"] = len(snap.Articles)
		data["degraded"] = snap.Degraded
	} else {
		data["status"] = "warming_up"
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	feed, err := s.query.Feed(r.URL.Query().Get("category"), limit)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: feed})
}

func (s *Server) handleSentimentSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.query.SentimentSummary()
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sum})
}

func (s *Server) handleMarketImpact(w http.ResponseWriter, r *http.Request) {
	mi, err := s.query.MarketImpact(chi.URLParam(r, "marketId"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: mi})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]any{"categories": s.query.Categories()},
	})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	d, err := s.query.Article(chi.URLParam(r, "id"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: d})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RefreshTimeout)
	defer cancel()

	snap, err := s.pipeline.RunCycle(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "On-demand cycle failed", err)
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: RefreshResult{
			CycleID:    snap.CycleID,
			Source:     snap.Source,
			Articles:   len(snap.Articles),
			Degraded:   snap.Degraded,
			Recoveries: snap.Recoveries,
		},
	})
}

func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNoData):
		writeError(w, http.StatusServiceUnavailable, "no news data available")
	case errors.Is(err, query.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, query.ErrUnknownMarket), errors.Is(err, query.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(context.Background(), "Failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
