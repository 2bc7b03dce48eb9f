package usecase

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/finpulse/insights/internal/core/domain"
)

// Fallback reasons reported to the pipeline observer.
const (
	fallbackParseError = "parse_error"
	fallbackWrongShape = "wrong_shape"
)

// stripCodeFence removes a leading markdown fence (```json or bare ```) and a
// trailing one, trimming surrounding whitespace. Idempotent: applying it to
// already-clean text returns the text unchanged.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	idx := strings.Index(s, "\n")
	if idx == -1 {
		return s
	}
	s = s[idx+1:]
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractJSONValue strips fences and, if prose still surrounds the payload,
// keeps only the region between the first opening and last closing delimiter.
func extractJSONValue(raw string, open, close byte) string {
	s := stripCodeFence(raw)
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start >= 0 && end > start {
		return strings.TrimSpace(s[start : end+1])
	}
	return s
}

type insightPayload struct {
	Title       string  `json:"title"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	ActionLabel *string `json:"action_label"`
	ActionType  *string `json:"action_type"`
}

// parseInsights validates raw model text into at most MaxInsightsPerRun
// normalized insights, in model order. Malformed output degrades to an empty
// list; this function never fails. The returned reason is non-empty when the
// fallback was taken.
func parseInsights(raw string) ([]domain.Insight, string) {
	cleaned := extractJSONValue(raw, '[', ']')

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		// Valid JSON of the wrong top-level kind is a shape failure, not a
		// parse failure; keep the two fallback reasons distinct.
		if strings.HasPrefix(cleaned, "{") {
			return []domain.Insight{}, fallbackWrongShape
		}
		return []domain.Insight{}, fallbackParseError
	}

	out := make([]domain.Insight, 0, domain.MaxInsightsPerRun)
	for _, entry := range entries {
		if len(out) == domain.MaxInsightsPerRun {
			break
		}
		var payload insightPayload
		if err := json.Unmarshal(entry, &payload); err != nil {
			continue
		}
		title := strings.TrimSpace(payload.Title)
		message := strings.TrimSpace(payload.Message)
		if title == "" || message == "" {
			continue
		}
		// Length ceilings are advisory: overlong fields pass through as-is,
		// truncating financial wording could mislead rather than protect.
		label, action := normalizeAction(payload)
		out = append(out, domain.Insight{
			Title:       title,
			Message:     message,
			Severity:    normalizeSeverity(payload.Severity),
			ActionLabel: label,
			ActionType:  action,
		})
	}
	return out, ""
}

func normalizeSeverity(raw string) domain.Severity {
	severity := domain.Severity(strings.ToLower(strings.TrimSpace(raw)))
	if !domain.ValidSeverity(severity) {
		return domain.SeverityDefault
	}
	return severity
}

// normalizeAction validates the optional action pair. Label and type survive
// together or default to null together.
func normalizeAction(payload insightPayload) (*string, *domain.ActionType) {
	if payload.ActionType == nil || payload.ActionLabel == nil {
		return nil, nil
	}
	action := domain.ActionType(strings.ToLower(strings.TrimSpace(*payload.ActionType)))
	label := strings.TrimSpace(*payload.ActionLabel)
	if !domain.ValidActionType(action) || label == "" {
		return nil, nil
	}
	return &label, &action
}

type digestPayload struct {
	Summary         string            `json:"summary"`
	Highlights      []json.RawMessage `json:"highlights"`
	Recommendations []json.RawMessage `json:"recommendations"`
	RiskScore       *float64          `json:"risk_score"`
	RiskLabel       string            `json:"risk_label"`
}

type highlightPayload struct {
	Label string          `json:"label"`
	Value json.RawMessage `json:"value"`
	Trend string          `json:"trend"`
	Good  bool            `json:"good"`
}

// parseDigest validates raw model text into a schema-conformant WeeklyDigest.
// Any parse or top-level shape failure yields the fixed fallback digest; this
// function never fails.
func parseDigest(raw string) (domain.WeeklyDigest, string) {
	cleaned := extractJSONValue(raw, '{', '}')

	var payload digestPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return domain.FallbackDigest(), fallbackParseError
	}
	summary := strings.TrimSpace(payload.Summary)
	if summary == "" {
		return domain.FallbackDigest(), fallbackWrongShape
	}

	digest := domain.WeeklyDigest{
		Summary:         summary,
		Highlights:      []domain.DigestHighlight{},
		Recommendations: []string{},
		RiskScore:       clampRiskScore(payload.RiskScore),
		RiskLabel:       normalizeRiskLabel(payload.RiskLabel),
	}
	for _, entry := range payload.Highlights {
		var h highlightPayload
		if err := json.Unmarshal(entry, &h); err != nil {
			continue
		}
		label := strings.TrimSpace(h.Label)
		value := decodeScalar(h.Value)
		if label == "" || value == "" {
			continue
		}
		digest.Highlights = append(digest.Highlights, domain.DigestHighlight{
			Label: label,
			Value: value,
			Trend: normalizeTrend(h.Trend),
			Good:  h.Good,
		})
	}
	for _, entry := range payload.Recommendations {
		var rec string
		if err := json.Unmarshal(entry, &rec); err != nil {
			continue
		}
		if rec = strings.TrimSpace(rec); rec != "" {
			digest.Recommendations = append(digest.Recommendations, rec)
		}
	}
	return digest, ""
}

// decodeScalar accepts a highlight value the model rendered as either a JSON
// string or a bare number.
func decodeScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func normalizeTrend(raw string) domain.TrendDirection {
	trend := domain.TrendDirection(strings.ToLower(strings.TrimSpace(raw)))
	if !domain.ValidTrend(trend) {
		return domain.TrendNeutral
	}
	return trend
}

func normalizeRiskLabel(raw string) domain.RiskLabel {
	trimmed := strings.TrimSpace(raw)
	for _, label := range []domain.RiskLabel{domain.RiskHealthy, domain.RiskStable, domain.RiskCaution, domain.RiskAtRisk} {
		if strings.EqualFold(trimmed, string(label)) {
			return label
		}
	}
	return domain.RiskCaution
}

func clampRiskScore(raw *float64) int {
	if raw == nil {
		return domain.RiskScoreFallback
	}
	score := int(math.Round(*raw))
	if score < domain.RiskScoreMin {
		return domain.RiskScoreMin
	}
	if score > domain.RiskScoreMax {
		return domain.RiskScoreMax
	}
	return score
}
