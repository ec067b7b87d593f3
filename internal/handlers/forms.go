package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"budget-tracker/internal/models"
)

// TransactionInput is a validated add-transaction submission. The amount is
// the positive magnitude entered by the user; sign encoding happens in the
// ledger.
type TransactionInput struct {
	Title    string
	Amount   float64
	Type     models.TransactionType
	Category string
}

// TransactionFormValues carries the raw submission plus field-level errors,
// so an invalid form re-renders with the user's input preserved.
type TransactionFormValues struct {
	Title    string
	Amount   string
	Type     string
	Category string
	Errors   map[string]string
}

// Valid reports whether the submission passed validation.
func (v TransactionFormValues) Valid() bool {
	return len(v.Errors) == 0
}

// ParseTransactionForm validates the add-transaction form. When the returned
// values carry errors, the input is not usable.
func ParseTransactionForm(r *http.Request) (TransactionInput, TransactionFormValues) {
	values := TransactionFormValues{
		Title:    strings.TrimSpace(r.FormValue("title")),
		Amount:   strings.TrimSpace(r.FormValue("amount")),
		Type:     r.FormValue("type"),
		Category: r.FormValue("category"),
		Errors:   make(map[string]string),
	}

	var input TransactionInput
	input.Title = values.Title
	if values.Title == "" {
		values.Errors["title"] = "Title is required"
	}

	switch amount, err := strconv.ParseFloat(values.Amount, 64); {
	case values.Amount == "":
		values.Errors["amount"] = "Amount is required"
	case err != nil:
		values.Errors["amount"] = "Amount must be a number"
	case amount <= 0:
		values.Errors["amount"] = "Amount must be greater than zero"
	default:
		input.Amount = amount
	}

	if models.ValidType(values.Type) {
		input.Type = models.TransactionType(values.Type)
	} else {
		values.Errors["type"] = "Choose income or expense"
	}

	if models.ValidCategory(values.Category) {
		input.Category = values.Category
	} else {
		values.Errors["category"] = "Choose a category"
	}

	return input, values
}

// CredentialsInput is a validated register/login submission.
type CredentialsInput struct {
	Username string
	Password string
}

// ParseCredentialsForm validates a username/password form. The password is
// taken verbatim; only the username is trimmed.
func ParseCredentialsForm(r *http.Request) (CredentialsInput, map[string]string) {
	input := CredentialsInput{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}

	errs := make(map[string]string)
	if input.Username == "" {
		errs["username"] = "Username is required"
	}
	if input.Password == "" {
		errs["password"] = "Password is required"
	}
	return input, errs
}
