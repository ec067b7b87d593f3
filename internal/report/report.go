// Package report computes derived figures from a ledger snapshot. Everything
// here is a pure function over an in-memory transaction list.
package report

import (
	"math"

	"budget-tracker/internal/models"
)

// CategoryTotal is the summed expense magnitude for one category.
type CategoryTotal struct {
	Name   string
	Amount float64
}

// Summary holds the aggregate figures for one user's ledger.
type Summary struct {
	TotalIncome  float64
	TotalExpense float64 // absolute magnitude
	NetBalance   float64
	// Categories lists expense totals in first-seen order so the chart
	// renders stably across requests.
	Categories []CategoryTotal
}

// Summarize computes totals and the per-category expense breakdown. An empty
// input yields zero totals and an empty breakdown.
func Summarize(transactions []models.Transaction) Summary {
	var s Summary
	var expenseSum float64
	index := make(map[string]int)

	for _, t := range transactions {
		switch t.Type {
		case models.TypeIncome:
			s.TotalIncome += t.Amount
		case models.TypeExpense:
			expenseSum += t.Amount
			i, ok := index[t.Category]
			if !ok {
				i = len(s.Categories)
				index[t.Category] = i
				s.Categories = append(s.Categories, CategoryTotal{Name: t.Category})
			}
			s.Categories[i].Amount += math.Abs(t.Amount)
		}
	}

	// Expenses are stored negative, so the signed sum is the net balance.
	s.NetBalance = s.TotalIncome + expenseSum
	s.TotalExpense = math.Abs(expenseSum)
	return s
}

// ChartLabels returns the category names in breakdown order.
func (s Summary) ChartLabels() []string {
	labels := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		labels[i] = c.Name
	}
	return labels
}

// ChartValues returns the category totals rounded to two decimals. Rounding
// is presentation only; Summary keeps full precision.
func (s Summary) ChartValues() []float64 {
	values := make([]float64, len(s.Categories))
	for i, c := range s.Categories {
		values[i] = math.Round(c.Amount*100) / 100
	}
	return values
}
