package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/finpulse/insights/internal/core/ports"
)

type Router struct {
	detector ports.AnomalyDetector
	digester ports.DigestGenerator
	insights ports.InsightStore
	metrics  http.Handler
	traffic  TrafficPolicy
}

func NewRouter(
	detector ports.AnomalyDetector,
	digester ports.DigestGenerator,
	insights ports.InsightStore,
	metricsHandler http.Handler,
	traffic TrafficPolicy,
) *Router {
	return &Router{
		detector: detector,
		digester: digester,
		insights: insights,
		metrics:  metricsHandler,
		traffic:  traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/insights/detect", rt.detectAnomalies)
	mux.HandleFunc("/v1/digest/weekly", rt.weeklyDigest)
	mux.HandleFunc("/v1/insights", rt.listInsights)
	mux.HandleFunc("/v1/insights/", rt.dismissInsight)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics)
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.traffic.MaxInFlight, rt.traffic.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = corsMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type accountRequest struct {
	AccountID string `json:"account_id"`
}

func decodeAccountRequest(r *http.Request) (accountRequest, bool) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return accountRequest{}, false
	}
	return req, true
}

func (rt *Router) detectAnomalies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, ok := decodeAccountRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.AccountID) == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	result, err := rt.detector.Detect(r.Context(), req.AccountID)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		slog.Error("anomaly_detection_failed",
			"request_id", requestIDFromContext(r.Context()),
			"account_id", req.AccountID,
			"status", status,
			"error", err,
		)
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) weeklyDigest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, ok := decodeAccountRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.AccountID) == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	digest, err := rt.digester.Generate(r.Context(), req.AccountID)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		slog.Error("weekly_digest_failed",
			"request_id", requestIDFromContext(r.Context()),
			"account_id", req.AccountID,
			"status", status,
			"error", err,
		)
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, digest)
}

func (rt *Router) listInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	accountID := strings.TrimSpace(r.URL.Query().Get("account_id"))
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	includeDismissed := r.URL.Query().Get("include_dismissed") == "true"

	insights, err := rt.insights.ListInsights(r.Context(), accountID, includeDismissed)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

func (rt *Router) dismissInsight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/insights/")
	insightID, action, found := strings.Cut(rest, "/")
	if !found || action != "dismiss" || insightID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	req, ok := decodeAccountRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.AccountID) == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	if err := rt.insights.DismissInsight(r.Context(), req.AccountID, insightID); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
