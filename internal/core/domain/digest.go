package domain

type TrendDirection string

const (
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendNeutral TrendDirection = "neutral"
)

func ValidTrend(t TrendDirection) bool {
	switch t {
	case TrendUp, TrendDown, TrendNeutral:
		return true
	default:
		return false
	}
}

type RiskLabel string

const (
	RiskHealthy RiskLabel = "Healthy"
	RiskStable  RiskLabel = "Stable"
	RiskCaution RiskLabel = "Caution"
	RiskAtRisk  RiskLabel = "At Risk"
)

func ValidRiskLabel(l RiskLabel) bool {
	switch l {
	case RiskHealthy, RiskStable, RiskCaution, RiskAtRisk:
		return true
	default:
		return false
	}
}

const (
	DigestSummaryMaxLen = 400
	RiskScoreMin        = 0
	RiskScoreMax        = 100
	RiskScoreFallback   = 50
)

// DigestHighlight is one labelled metric in the weekly digest. Good marks
// whether the stated trend is favourable for the business.
type DigestHighlight struct {
	Label string         `json:"label"`
	Value string         `json:"value"`
	Trend TrendDirection `json:"trend"`
	Good  bool           `json:"good"`
}

// WeeklyDigest is the digest pipeline's response body. Never persisted; it is
// regenerated on every invocation.
type WeeklyDigest struct {
	Summary         string            `json:"summary"`
	Highlights      []DigestHighlight `json:"highlights"`
	Recommendations []string          `json:"recommendations"`
	RiskScore       int               `json:"risk_score"`
	RiskLabel       RiskLabel         `json:"risk_label"`
}

// FallbackDigest is the fixed schema-conformant substitute used when the
// model's output cannot be parsed into a digest.
func FallbackDigest() WeeklyDigest {
	return WeeklyDigest{
		Summary:         "Unable to generate digest right now.",
		Highlights:      []DigestHighlight{},
		Recommendations: []string{},
		RiskScore:       RiskScoreFallback,
		RiskLabel:       RiskCaution,
	}
}
