package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleCampaignDaily returns per-day metrics for one campaign. It expects
// an {id} path parameter and accepts optional `from` and `to` (RFC3339
// timestamps) query parameters; the service defaults an empty period to the
// last 30 days. Invalid parameters result in HTTP 400. Internal errors
// produce HTTP 500. On success it writes a JSON array of daily metrics.
func (h *Handler) handleCampaignDaily(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var (
		q        = r.URL.Query()
		from, to time.Time
	)
	if fromStr := q.Get("from"); fromStr != "" {
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			http.Error(w, "invalid 'from' timestamp", http.StatusBadRequest)
			return
		}
	}
	if toStr := q.Get("to"); toStr != "" {
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			http.Error(w, "invalid 'to' timestamp", http.StatusBadRequest)
			return
		}
	}

	h.respond(w, r, func() (any, error) {
		return h.svc.CampaignDailyMetrics(r.Context(), campaignID, from, to)
	})
}

// handleTopUsers returns the users with the most clicks in the current
// window, most active first. It accepts an optional `limit` query parameter.
func (h *Handler) handleTopUsers(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	h.respond(w, r, func() (any, error) {
		return h.svc.TopUsersByClicks(r.Context(), limit)
	})
}

// handleUserEngagement returns one user's ad interactions, newest first. It
// expects an {id} path parameter and accepts an optional `limit` query
// parameter.
func (h *Handler) handleUserEngagement(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	h.respond(w, r, func() (any, error) {
		return h.svc.UserEngagementHistory(r.Context(), userID, limit)
	})
}

// handleTopAdvertisers returns advertisers ranked by windowed spend. It
// accepts an optional `limit` query parameter.
func (h *Handler) handleTopAdvertisers(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	h.respond(w, r, func() (any, error) {
		return h.svc.TopAdvertisersBySpend(r.Context(), limit)
	})
}

// handleSpendByRegion returns per-advertiser daily spend for one region.
// The `region` query parameter is required.
func (h *Handler) handleSpendByRegion(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		http.Error(w, "missing region", http.StatusBadRequest)
		return
	}
	h.respond(w, r, func() (any, error) {
		return h.svc.RegionAdvertiserSpend(r.Context(), region)
	})
}

// respond serves the encoded response for the request URI from the cache
// when present, otherwise runs the lookup, encodes the result and caches it.
// Error responses are never cached.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, lookup func() (any, error)) {
	key := r.URL.RequestURI()
	if body, ok := h.cache.get(key); ok {
		writeJSON(w, body)
		return
	}

	result, err := lookup()
	if err != nil {
		h.logger.Error("analytics error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.cache.set(key, body)
	writeJSON(w, body)
}

func writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return 0, false
	}
	return limit, true
}
