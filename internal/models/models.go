package models

import "time"

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	// TypeIncome marks a transaction that adds to the balance.
	TypeIncome TransactionType = "income"
	// TypeExpense marks a transaction that subtracts from the balance.
	TypeExpense TransactionType = "expense"
)

// ValidType reports whether s is a known transaction type.
func ValidType(s string) bool {
	return s == string(TypeIncome) || s == string(TypeExpense)
}

// Categories is the fixed set of transaction categories, in display order.
var Categories = []string{
	"Maaş",
	"Yatırım",
	"Kira",
	"Gıda",
	"Fatura",
	"Ulaşım",
	"Eğlence",
	"Diğer",
}

// ValidCategory reports whether s is one of the fixed categories.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

// Transaction represents a single ledger entry. Expenses carry a negative
// amount; incomes a positive one.
type Transaction struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Amount   float64         `json:"amount"`
	Type     TransactionType `json:"type"`
	Category string          `json:"category"`
	Date     time.Time       `json:"date"`
	UserID   int64           `json:"user_id"`
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents a user session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
