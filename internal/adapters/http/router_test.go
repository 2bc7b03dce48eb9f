package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finpulse/insights/internal/core/domain"
)

type detectorFake struct {
	result *domain.DetectionResult
	err    error
	calls  int
}

func (f *detectorFake) Detect(_ context.Context, _ string) (*domain.DetectionResult, error) {
	f.calls++
	return f.result, f.err
}

type digesterFake struct {
	digest *domain.WeeklyDigest
	err    error
	calls  int
}

func (f *digesterFake) Generate(_ context.Context, _ string) (*domain.WeeklyDigest, error) {
	f.calls++
	return f.digest, f.err
}

type insightStoreFake struct {
	listed     []domain.Insight
	listErr    error
	dismissErr error

	dismissedAccount string
	dismissedID      string
}

func (f *insightStoreFake) InsertInsights(_ context.Context, _ []domain.Insight) error {
	return nil
}

func (f *insightStoreFake) ListInsights(_ context.Context, _ string, _ bool) ([]domain.Insight, error) {
	return f.listed, f.listErr
}

func (f *insightStoreFake) DismissInsight(_ context.Context, accountID, insightID string) error {
	f.dismissedAccount = accountID
	f.dismissedID = insightID
	return f.dismissErr
}

func newTestHandler(detector *detectorFake, digester *digesterFake, store *insightStoreFake, traffic TrafficPolicy) http.Handler {
	if detector == nil {
		detector = &detectorFake{result: &domain.DetectionResult{Insights: []domain.Insight{}}}
	}
	if digester == nil {
		digester = &digesterFake{digest: &domain.WeeklyDigest{}}
	}
	if store == nil {
		store = &insightStoreFake{}
	}
	return NewRouter(detector, digester, store, nil, traffic).Handler()
}

func TestDetectReturnsInsights(t *testing.T) {
	detector := &detectorFake{result: &domain.DetectionResult{Insights: []domain.Insight{
		{ID: "ins-1", AccountID: "acct-1", Title: "Spend spike", Message: "Software spend doubled", Severity: domain.SeverityWarning},
	}}}
	handler := newTestHandler(detector, nil, nil, TrafficPolicy{})

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/detect", strings.NewReader(`{"account_id":"acct-1"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var result domain.DetectionResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Insights) != 1 || result.Insights[0].ID != "ins-1" {
		t.Fatalf("unexpected payload: %+v", result)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestDetectMissingAccountIDReturns400WithoutCallingPipeline(t *testing.T) {
	detector := &detectorFake{result: &domain.DetectionResult{}}
	handler := newTestHandler(detector, nil, nil, TrafficPolicy{})

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/detect", strings.NewReader(`{"account_id":"  "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if detector.calls != 0 {
		t.Fatalf("detector must not run for invalid request, calls=%d", detector.calls)
	}
}

func TestDetectMapsErrorKindsToStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid_input", domain.WrapError(domain.ErrInvalidInput, "detect insights", errors.New("account id is required")), http.StatusBadRequest},
		{"upstream", domain.WrapError(domain.ErrUpstreamUnavailable, "model completion", errors.New("status 503")), http.StatusServiceUnavailable},
		{"data", domain.WrapError(domain.ErrDataUnavailable, "list transactions", errors.New("connection refused")), http.StatusInternalServerError},
		{"storage", domain.WrapError(domain.ErrStorage, "insert insights", errors.New("constraint violation")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(&detectorFake{err: tc.err}, nil, nil, TrafficPolicy{})
			req := httptest.NewRequest(http.MethodPost, "/v1/insights/detect", strings.NewReader(`{"account_id":"acct-1"}`))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body["error"] == "" {
				t.Fatalf("expected error message in body")
			}
		})
	}
}

func TestDetectInsufficientDataStaysOK(t *testing.T) {
	detector := &detectorFake{result: &domain.DetectionResult{
		Insights: []domain.Insight{},
		Message:  domain.InsufficientDataMessage,
	}}
	handler := newTestHandler(detector, nil, nil, TrafficPolicy{})

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/detect", strings.NewReader(`{"account_id":"acct-1"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var result domain.DetectionResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Message != domain.InsufficientDataMessage {
		t.Fatalf("expected message %q, got %q", domain.InsufficientDataMessage, result.Message)
	}
}

func TestWeeklyDigestReturnsDigest(t *testing.T) {
	digest := domain.FallbackDigest()
	handler := newTestHandler(nil, &digesterFake{digest: &digest}, nil, TrafficPolicy{})

	req := httptest.NewRequest(http.MethodPost, "/v1/digest/weekly", strings.NewReader(`{"account_id":"acct-1"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var got domain.WeeklyDigest
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Summary != digest.Summary {
		t.Fatalf("expected summary %q, got %q", digest.Summary, got.Summary)
	}
}

func TestListInsightsRequiresAccountID(t *testing.T) {
	handler := newTestHandler(nil, nil, nil, TrafficPolicy{})

	req := httptest.NewRequest(http.MethodGet, "/v1/insights", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestDismissInsightNotFoundReturns404(t *testing.T) {
	store := &insightStoreFake{dismissErr: domain.WrapError(domain.ErrInsightNotFound, "dismiss insight", errors.New("id=ins-404"))}
	handler := newTestHandler(nil, nil, store, TrafficPolicy{})

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/ins-404/dismiss", strings.NewReader(`{"account_id":"acct-1"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	if store.dismissedID != "ins-404" || store.dismissedAccount != "acct-1" {
		t.Fatalf("unexpected dismiss args: %q %q", store.dismissedAccount, store.dismissedID)
	}
}

func TestDismissInsightReturnsNoContent(t *testing.T) {
	store := &insightStoreFake{}
	handler := newTestHandler(nil, nil, store, TrafficPolicy{})

	req := httptest.NewRequest(http.MethodPost, "/v1/insights/ins-1/dismiss", strings.NewReader(`{"account_id":"acct-1"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}

func TestCORSPreflightAllowsAnyOrigin(t *testing.T) {
	handler := newTestHandler(nil, nil, nil, TrafficPolicy{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/insights/detect", nil)
	req.Header.Set("Origin", "https://app.example.com")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", res.Code)
	}
	if res.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected wildcard origin, got %q", res.Header().Get("Access-Control-Allow-Origin"))
	}
	if res.Body.Len() != 0 {
		t.Fatalf("expected empty preflight body, got %q", res.Body.String())
	}
}
