package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/finpulse/insights/internal/core/domain"
)

func TestBuildDigestPromptRendersNetInMajorUnits(t *testing.T) {
	summary := domain.AggregateSummary{
		BusinessName: "Acme Studio",
		Currency:     "EUR",
		WindowDays:   7,
		IncomeMinor:  500000,
		ExpenseMinor: 320000,
		NetMinor:     180000,
	}
	prompt := buildDigestPrompt(summary)

	for _, want := range []string{
		"Income: 5000.00 EUR",
		"Expenses: 3200.00 EUR",
		"Net: 1800.00 EUR",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildDigestPromptReportsOverdueInvoices(t *testing.T) {
	summary := domain.AggregateSummary{
		Currency:            "EUR",
		OverdueInvoiceCount: 3,
		OverdueInvoiceMinor: 45000,
	}
	prompt := buildDigestPrompt(summary)
	if !strings.Contains(prompt, "Overdue invoices: 3 totaling 450.00 EUR") {
		t.Fatalf("prompt missing overdue invoice line:\n%s", prompt)
	}
}

func TestBuildDetectionPromptDeclaresOutputContract(t *testing.T) {
	summary := domain.AggregateSummary{BusinessName: "Acme", Currency: "USD", WindowDays: 90}
	prompt := buildDetectionPrompt(summary)

	for _, want := range []string{
		`"severity"`,
		`"critical", "warning", "info"`,
		`"view_transactions", "view_invoices", "view_incidents"`,
		`begin with "[" and end with "]"`,
		"No markdown, no code fences",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing contract fragment %q", want)
		}
	}
}

func TestBuildDetectionPromptItemizesRecentTransactions(t *testing.T) {
	summary := domain.AggregateSummary{
		Currency: "GBP",
		Recent: []domain.Transaction{
			{AmountMinor: -12050, Merchant: "Acme Supplies", Category: "Software", OccurredAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)},
		},
	}
	prompt := buildDetectionPrompt(summary)
	if !strings.Contains(prompt, "2026-08-01 | out -120.50 GBP | Acme Supplies | Software") {
		t.Fatalf("prompt missing transaction line:\n%s", prompt)
	}
}

func TestBuildDetectionPromptOmitsInvoiceAndIncidentLines(t *testing.T) {
	account := &domain.Account{ID: "acc-1", BusinessName: "Acme", Currency: "EUR"}
	txs := []domain.Transaction{
		{ID: "tx-1", AmountMinor: -12050, Category: "Software", OccurredAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "tx-2", AmountMinor: 50000, IsIncome: true, OccurredAt: time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)},
	}
	summary := buildAnomalySummary(account, txs, 90, 5, 100)
	prompt := buildDetectionPrompt(summary)

	for _, unwanted := range []string{
		"Overdue invoices:",
		"Invoices paid in window:",
		"Incidents opened in window:",
	} {
		if strings.Contains(prompt, unwanted) {
			t.Fatalf("detection prompt states %q although the pipeline never reads those records:\n%s", unwanted, prompt)
		}
	}
}

func TestPromptBuildersArePure(t *testing.T) {
	summary := domain.AggregateSummary{BusinessName: "Acme", Currency: "EUR", IncomeMinor: 100, TopCategories: []domain.CategoryTotal{{Category: "Rent", AmountMinor: 50}}}
	if buildDetectionPrompt(summary) != buildDetectionPrompt(summary) {
		t.Fatalf("detection prompt not deterministic")
	}
	if buildDigestPrompt(summary) != buildDigestPrompt(summary) {
		t.Fatalf("digest prompt not deterministic")
	}
}
