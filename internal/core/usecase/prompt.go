package usecase

import (
	"fmt"
	"strings"

	"github.com/finpulse/insights/internal/core/domain"
)

// buildDetectionPrompt renders the anomaly-detector instruction. Pure function
// of the summary; it never calls the model.
func buildDetectionPrompt(s domain.AggregateSummary) string {
	var b strings.Builder
	b.WriteString("You are a financial anomaly detector for small businesses.\n")
	b.WriteString("Review the account activity below and report unusual patterns: spending spikes, duplicate charges, cash-flow risks, unusual merchants.\n\n")
	writeSummaryLines(&b, s)
	writeRecentTransactions(&b, s)

	fmt.Fprintf(&b, `Output STRICT JSON only: a JSON array of at most %d objects.
Each object must have these fields:
- "title": string, at most %d characters
- "message": string, at most %d characters
- "severity": one of "critical", "warning", "info"
- "action_label": string of at most %d characters, or null
- "action_type": one of "view_transactions", "view_invoices", "view_incidents", or null

Return ONLY the raw JSON array. No markdown, no code fences, no commentary.
Output must begin with "[" and end with "]".
`, domain.MaxInsightsPerRun, domain.InsightTitleMaxLen, domain.InsightMessageMaxLen, domain.InsightActionLabelMaxLen)
	return b.String()
}

// buildDigestPrompt renders the CFO-assistant instruction for the weekly
// digest.
func buildDigestPrompt(s domain.AggregateSummary) string {
	var b strings.Builder
	b.WriteString("You are a CFO assistant for a small business.\n")
	b.WriteString("Write a weekly financial digest from the activity below: what happened, what deserves attention, and what to do next.\n\n")
	writeSummaryLines(&b, s)
	writeReceivablesLines(&b, s)

	fmt.Fprintf(&b, `Output STRICT JSON only: a single JSON object with these fields:
- "summary": string, at most %d characters
- "highlights": array of objects {"label": string, "value": string, "trend": "up"|"down"|"neutral", "good": boolean}
- "recommendations": array of strings
- "risk_score": integer from %d to %d
- "risk_label": one of "Healthy", "Stable", "Caution", "At Risk"

Return ONLY the raw JSON object. No markdown, no code fences, no commentary.
Output must begin with "{" and end with "}".
`, domain.DigestSummaryMaxLen, domain.RiskScoreMin, domain.RiskScoreMax)
	return b.String()
}

func writeSummaryLines(b *strings.Builder, s domain.AggregateSummary) {
	fmt.Fprintf(b, "Business: %s\n", s.BusinessName)
	fmt.Fprintf(b, "Window: last %d days\n", s.WindowDays)
	fmt.Fprintf(b, "Transactions: %d\n", s.TransactionCount)
	fmt.Fprintf(b, "Income: %s\n", domain.FormatMinor(s.IncomeMinor, s.Currency))
	fmt.Fprintf(b, "Expenses: %s\n", domain.FormatMinor(s.ExpenseMinor, s.Currency))
	fmt.Fprintf(b, "Net: %s\n", domain.FormatMinor(s.NetMinor, s.Currency))
	if s.PayrollMinor > 0 {
		fmt.Fprintf(b, "Monthly payroll: %s\n", domain.FormatMinor(s.PayrollMinor, s.Currency))
	}
	if len(s.TopCategories) > 0 {
		b.WriteString("Top expense categories:\n")
		for _, c := range s.TopCategories {
			fmt.Fprintf(b, "  - %s: %s\n", c.Category, domain.FormatMinor(c.AmountMinor, s.Currency))
		}
	}
	b.WriteString("\n")
}

// writeReceivablesLines renders the invoice and incident facts. Only the
// digest aggregates those record sets; the detection summary covers
// transactions alone, so its prompt must not state invoice or incident
// counts it never fetched.
func writeReceivablesLines(b *strings.Builder, s domain.AggregateSummary) {
	fmt.Fprintf(b, "Overdue invoices: %d totaling %s\n", s.OverdueInvoiceCount, domain.FormatMinor(s.OverdueInvoiceMinor, s.Currency))
	fmt.Fprintf(b, "Invoices paid in window: %d\n", s.InvoicesPaidCount)
	fmt.Fprintf(b, "Incidents opened in window: %d\n", s.IncidentsOpened)
	b.WriteString("\n")
}

func writeRecentTransactions(b *strings.Builder, s domain.AggregateSummary) {
	if len(s.Recent) == 0 {
		return
	}
	fmt.Fprintf(b, "Most recent transactions (%d):\n", len(s.Recent))
	for _, tx := range s.Recent {
		direction := "out"
		if tx.IsIncome {
			direction = "in"
		}
		category := tx.Category
		if category == "" {
			category = otherCategory
		}
		merchant := tx.Merchant
		if merchant == "" {
			merchant = "unknown"
		}
		fmt.Fprintf(b, "  %s | %s %s | %s | %s\n",
			tx.OccurredAt.Format("2006-01-02"),
			direction,
			domain.FormatMinor(tx.AmountMinor, s.Currency),
			merchant,
			category,
		)
	}
	b.WriteString("\n")
}
