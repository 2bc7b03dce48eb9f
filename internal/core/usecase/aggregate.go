package usecase

import (
	"sort"
	"time"

	"github.com/finpulse/insights/internal/core/domain"
)

// otherCategory collects expense transactions without a category.
const otherCategory = "Other"

// buildAnomalySummary reduces an account's windowed transactions to the
// summary forwarded to the detection prompt. Totals cover the full set;
// Recent is capped to keep the prompt bounded. Deterministic for any input
// order: category ties break alphabetically and recency sorts fall back to
// transaction ID.
func buildAnomalySummary(account *domain.Account, txs []domain.Transaction, windowDays, topCategories, recentLimit int) domain.AggregateSummary {
	income, expense := sumTransactions(txs)
	return domain.AggregateSummary{
		BusinessName:     account.BusinessName,
		Currency:         account.Currency,
		PayrollMinor:     account.PayrollMinor,
		WindowDays:       windowDays,
		TransactionCount: len(txs),
		IncomeMinor:      income,
		ExpenseMinor:     expense,
		NetMinor:         income - expense,
		TopCategories:    rankCategories(txs, topCategories),
		Recent:           mostRecent(txs, recentLimit),
	}
}

// buildDigestSummary folds all four record sets for the digest prompt.
func buildDigestSummary(account *domain.Account, txs []domain.Transaction, invoices []domain.Invoice, incidents []domain.Incident, since time.Time, windowDays, topCategories int) domain.AggregateSummary {
	income, expense := sumTransactions(txs)
	summary := domain.AggregateSummary{
		BusinessName:     account.BusinessName,
		Currency:         account.Currency,
		PayrollMinor:     account.PayrollMinor,
		WindowDays:       windowDays,
		TransactionCount: len(txs),
		IncomeMinor:      income,
		ExpenseMinor:     expense,
		NetMinor:         income - expense,
		TopCategories:    rankCategories(txs, topCategories),
		IncidentsOpened:  countIncidentsOpened(incidents, since),
	}
	for _, inv := range invoices {
		if inv.Status == domain.InvoiceOverdue {
			summary.OverdueInvoiceCount++
			summary.OverdueInvoiceMinor += inv.AmountMinor
		}
		if inv.Status == domain.InvoicePaid && inv.PaidAt != nil && !inv.PaidAt.Before(since) {
			summary.InvoicesPaidCount++
		}
	}
	return summary
}

// sumTransactions accumulates income and expense totals in minor units.
// Expense is returned as a positive magnitude.
func sumTransactions(txs []domain.Transaction) (income, expense int64) {
	for _, tx := range txs {
		amount := tx.AmountMinor
		if amount < 0 {
			amount = -amount
		}
		if tx.IsIncome {
			income += amount
		} else {
			expense += amount
		}
	}
	return income, expense
}

// rankCategories totals expense transactions per category and returns the top
// buckets by descending magnitude, ties broken alphabetically so the ranking
// is independent of input order.
func rankCategories(txs []domain.Transaction, top int) []domain.CategoryTotal {
	totals := make(map[string]int64)
	for _, tx := range txs {
		if tx.IsIncome {
			continue
		}
		category := tx.Category
		if category == "" {
			category = otherCategory
		}
		amount := tx.AmountMinor
		if amount < 0 {
			amount = -amount
		}
		totals[category] += amount
	}

	ranked := make([]domain.CategoryTotal, 0, len(totals))
	for category, amount := range totals {
		ranked = append(ranked, domain.CategoryTotal{Category: category, AmountMinor: amount})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AmountMinor != ranked[j].AmountMinor {
			return ranked[i].AmountMinor > ranked[j].AmountMinor
		}
		return ranked[i].Category < ranked[j].Category
	})
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}

// mostRecent returns up to limit transactions, newest first, without
// mutating the input slice.
func mostRecent(txs []domain.Transaction, limit int) []domain.Transaction {
	recent := make([]domain.Transaction, len(txs))
	copy(recent, txs)
	sort.Slice(recent, func(i, j int) bool {
		if !recent[i].OccurredAt.Equal(recent[j].OccurredAt) {
			return recent[i].OccurredAt.After(recent[j].OccurredAt)
		}
		return recent[i].ID < recent[j].ID
	})
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}

func countIncidentsOpened(incidents []domain.Incident, since time.Time) int {
	count := 0
	for _, incident := range incidents {
		if !incident.OpenedAt.Before(since) {
			count++
		}
	}
	return count
}
