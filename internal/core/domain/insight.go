package domain

import "time"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// SeverityDefault is substituted when the model omits or invents a severity.
const SeverityDefault = SeverityWarning

func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	default:
		return false
	}
}

type ActionType string

const (
	ActionViewTransactions ActionType = "view_transactions"
	ActionViewInvoices     ActionType = "view_invoices"
	ActionViewIncidents    ActionType = "view_incidents"
)

func ValidActionType(a ActionType) bool {
	switch a {
	case ActionViewTransactions, ActionViewInvoices, ActionViewIncidents:
		return true
	default:
		return false
	}
}

const (
	// MaxInsightsPerRun bounds how many insights one detection run may return
	// or persist, regardless of how many the model produced.
	MaxInsightsPerRun = 5

	// Ceilings stated in the prompt contract. Advisory: an overlong field is
	// accepted as-is because truncating financial wording could mislead.
	InsightTitleMaxLen       = 80
	InsightMessageMaxLen     = 240
	InsightActionLabelMaxLen = 40
)

// Insight is one persisted anomaly finding scoped to an account. Created by
// the detection pipeline, mutated afterwards only by user dismissal.
type Insight struct {
	ID          string      `json:"id"`
	AccountID   string      `json:"account_id"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Severity    Severity    `json:"severity"`
	ActionLabel *string     `json:"action_label"`
	ActionType  *ActionType `json:"action_type"`
	Dismissed   bool        `json:"dismissed"`
	CreatedAt   time.Time   `json:"created_at"`
}

// DetectionResult is the anomaly pipeline's caller-facing outcome. Message is
// set only for the insufficient-data condition, which is a normal-path result.
type DetectionResult struct {
	Insights []Insight `json:"insights"`
	Message  string    `json:"message,omitempty"`
}

// InsufficientDataMessage accompanies an empty result when too few
// transactions exist to detect anomalies.
const InsufficientDataMessage = "Not enough transaction data"
