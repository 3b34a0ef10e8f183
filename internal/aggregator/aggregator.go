// Package aggregator computes derived read views over the normalized
// transaction set: category totals, income/expense summaries, the
// review queue and the monthly profit-and-loss series. It owns no
// entities and never talks to source adapters.
package aggregator

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerlens/internal/models"
)

// CategoryTotal is one row of the expense-by-category view.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// Summary is the income/expense/net rollup.
type Summary struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// MonthlyProfitLoss is one month of the profit-and-loss series.
type MonthlyProfitLoss struct {
	Month    string          `json:"month"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
}

// CategoryTotals sums abs(amount) per category over expense
// transactions, sorted descending by total. Ties keep the categories'
// first-seen order.
func CategoryTotals(transactions []models.Transaction) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)
	var order []string

	for _, tx := range transactions {
		if tx.Kind != models.KindExpense {
			continue
		}
		entry, ok := totals[tx.Category]
		if !ok {
			entry = &CategoryTotal{Category: tx.Category}
			totals[tx.Category] = entry
			order = append(order, tx.Category)
		}
		entry.Total = entry.Total.Add(tx.Amount.Abs())
		entry.Count++
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, category := range order {
		out = append(out, *totals[category])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}

// Summarize computes total income, total expenses (as a positive
// magnitude) and the net of the two.
func Summarize(transactions []models.Transaction) Summary {
	var s Summary
	for _, tx := range transactions {
		switch tx.Kind {
		case models.KindIncome:
			s.Income = s.Income.Add(tx.Amount)
		case models.KindExpense:
			s.Expenses = s.Expenses.Add(tx.Amount.Abs())
		}
	}
	s.Net = s.Income.Sub(s.Expenses)
	return s
}

// ReviewQueue returns the transactions awaiting human review, newest
// first. The sort is stable: same-date items keep their input order.
func ReviewQueue(transactions []models.Transaction) []models.Transaction {
	var out []models.Transaction
	for _, tx := range transactions {
		if tx.NeedsReview {
			out = append(out, tx)
		}
	}
	return SortByDateDesc(out)
}

// SortByDateDesc sorts a copy of the transactions by date descending.
// Transactions sharing a date keep their relative input order.
func SortByDateDesc(transactions []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(transactions))
	copy(out, transactions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// findRowByLabel walks the report row tree depth-first, pre-order, and
// returns the first row whose label contains the needle
// (case-insensitive). Section totals can sit arbitrarily deep.
func findRowByLabel(rows *models.ReportRows, needle string) *models.ReportRow {
	if rows == nil {
		return nil
	}
	lowered := strings.ToLower(needle)
	for i := range rows.Row {
		row := &rows.Row[i]
		if strings.Contains(strings.ToLower(row.Label()), lowered) {
			return row
		}
		if found := findRowByLabel(row.Rows, lowered); found != nil {
			return found
		}
	}
	return nil
}

// cellValue parses one report cell; missing or non-numeric cells count
// as zero rather than failing the series.
func cellValue(cells []models.ReportCell, idx int) decimal.Decimal {
	if idx >= len(cells) {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(strings.TrimSpace(cells[idx].Value))
	if err != nil {
		return decimal.Zero
	}
	return value
}

// MonthlyProfitLossSeries derives the per-month revenue/expense/profit
// series from a summary report tree. The first column is the label
// column and is skipped; columns with an empty title are skipped too.
func MonthlyProfitLossSeries(report *models.Report) []MonthlyProfitLoss {
	if report == nil {
		return nil
	}

	incomeRow := findRowByLabel(&report.Rows, "total income")
	expenseRow := findRowByLabel(&report.Rows, "total expenses")

	var incomeCells, expenseCells []models.ReportCell
	if incomeRow != nil {
		incomeCells = incomeRow.Cells()
	}
	if expenseRow != nil {
		expenseCells = expenseRow.Cells()
	}

	var out []MonthlyProfitLoss
	for i, col := range report.Columns.Column {
		if i == 0 || col.ColTitle == "" {
			continue
		}
		revenue := cellValue(incomeCells, i)
		expenses := cellValue(expenseCells, i)
		out = append(out, MonthlyProfitLoss{
			Month:    col.ColTitle,
			Revenue:  revenue,
			Expenses: expenses,
			Profit:   revenue.Sub(expenses),
		})
	}
	return out
}
