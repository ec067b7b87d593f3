package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"budget-tracker/internal/auth"
	"budget-tracker/internal/models"
	"budget-tracker/internal/report"
	"budget-tracker/internal/storage"
	"budget-tracker/web"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db           *storage.DB
	secureCookie bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, secureCookie bool) *Handlers {
	return &Handlers{db: db, secureCookie: secureCookie}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication.
// It also implements rolling sessions: if a session is past the halfway point
// of its lifetime, it automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(cookie.Value)
		if err != nil {
			// Invalid or expired session, clear the cookie
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		// Rolling session: renew if past halfway point
		// This keeps active users logged in while still expiring inactive sessions
		now := time.Now()
		timeUntilExpiry := sessionInfo.ExpiresAt.Sub(now)
		halfSessionDuration := SessionDuration / 2

		if timeUntilExpiry < halfSessionDuration {
			newExpiresAt := now.Add(SessionDuration)
			if err := h.db.RenewSession(cookie.Value, newExpiresAt); err == nil {
				http.SetCookie(w, h.sessionCookie(cookie.Value, int(SessionDuration.Seconds())))
			}
			// If renewal fails, just continue with the current session
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, h.sessionCookie("", -1))
}

// AuthViewModel holds data for the login and register pages.
type AuthViewModel struct {
	Error    string
	Username string
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register.html", AuthViewModel{})
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "register.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	input, errs := ParseCredentialsForm(r)
	if len(errs) > 0 {
		h.render(w, "register.html", AuthViewModel{
			Error:    "Username and password are required",
			Username: input.Username,
		})
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		h.render(w, "register.html", AuthViewModel{Error: "An error occurred. Please try again."})
		return
	}

	if _, err := h.db.CreateUser(input.Username, hash); err != nil {
		if err == storage.ErrUsernameTaken {
			h.render(w, "register.html", AuthViewModel{
				Error:    "That username is already taken",
				Username: input.Username,
			})
			return
		}
		slog.Error("failed to create user", "error", err)
		h.render(w, "register.html", AuthViewModel{Error: "An error occurred. Please try again."})
		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, go straight to the ledger
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.db.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}
	h.render(w, "login.html", AuthViewModel{})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "login.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	input, errs := ParseCredentialsForm(r)
	if len(errs) > 0 {
		h.render(w, "login.html", AuthViewModel{
			Error:    "Username and password are required",
			Username: input.Username,
		})
		return
	}

	// Unknown username and wrong password must be indistinguishable, in
	// message and in cost.
	user, err := h.db.GetUserByUsername(input.Username)
	if err != nil {
		auth.CompareDummy(input.Password)
		h.render(w, "login.html", AuthViewModel{Error: "Invalid username or password", Username: input.Username})
		return
	}
	if !auth.CheckPassword(input.Password, user.PasswordHash) {
		h.render(w, "login.html", AuthViewModel{Error: "Invalid username or password", Username: input.Username})
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		h.render(w, "login.html", AuthViewModel{Error: "An error occurred. Please try again."})
		return
	}

	expiresAt := time.Now().Add(SessionDuration)
	if err := h.db.CreateSession(token, user.ID, expiresAt); err != nil {
		slog.Error("failed to create session", "error", err)
		h.render(w, "login.html", AuthViewModel{Error: "An error occurred. Please try again."})
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(SessionDuration.Seconds())))
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			slog.Error("failed to delete session", "error", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// TransactionItem represents a ledger row in the list view.
type TransactionItem struct {
	models.Transaction
	Magnitude float64
	IsIncome  bool
	When      string
}

// LedgerViewModel is the data passed to the ledger page template.
type LedgerViewModel struct {
	Username     string
	Transactions []TransactionItem
	Summary      report.Summary
	ChartLabels  template.JS
	ChartValues  template.JS
	Form         TransactionFormValues
	Categories   []string
}

func (h *Handlers) ledgerViewModel(user *models.User, form TransactionFormValues) (LedgerViewModel, error) {
	transactions, err := h.db.ListTransactionsByUser(user.ID)
	if err != nil {
		return LedgerViewModel{}, err
	}

	summary := report.Summarize(transactions)

	items := make([]TransactionItem, 0, len(transactions))
	for _, t := range transactions {
		magnitude := t.Amount
		if magnitude < 0 {
			magnitude = -magnitude
		}
		items = append(items, TransactionItem{
			Transaction: t,
			Magnitude:   magnitude,
			IsIncome:    t.Type == models.TypeIncome,
			When:        t.Date.Format("02 Jan 2006 15:04"),
		})
	}

	labels, err := json.Marshal(summary.ChartLabels())
	if err != nil {
		return LedgerViewModel{}, err
	}
	values, err := json.Marshal(summary.ChartValues())
	if err != nil {
		return LedgerViewModel{}, err
	}

	if form.Errors == nil {
		form.Errors = make(map[string]string)
	}

	return LedgerViewModel{
		Username:     user.Username,
		Transactions: items,
		Summary:      summary,
		ChartLabels:  template.JS(labels),
		ChartValues:  template.JS(values),
		Form:         form,
		Categories:   models.Categories,
	}, nil
}

// Ledger renders the main budget page: totals, transaction list, add form,
// and the expense-by-category chart.
func (h *Handlers) Ledger(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	vm, err := h.ledgerViewModel(user, TransactionFormValues{})
	if err != nil {
		slog.Error("failed to load ledger", "error", err, "user_id", user.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.render(w, "index.html", vm)
}

// CreateTransaction handles the add-transaction form. Invalid submissions
// re-render the ledger page with inline field errors; valid ones redirect
// back to the ledger.
func (h *Handlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	input, values := ParseTransactionForm(r)
	if !values.Valid() {
		vm, err := h.ledgerViewModel(user, values)
		if err != nil {
			slog.Error("failed to load ledger", "error", err, "user_id", user.ID)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		h.render(w, "index.html", vm)
		return
	}

	if _, err := h.db.CreateTransaction(user.ID, input.Title, input.Amount, input.Type, input.Category); err != nil {
		slog.Error("failed to create transaction", "error", err, "user_id", user.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// Reset deletes all of the current user's transactions.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	deleted, err := h.db.DeleteTransactionsByUser(user.ID)
	if err != nil {
		slog.Error("failed to reset ledger", "error", err, "user_id", user.ID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.Info("ledger reset", "user_id", user.ID, "deleted", deleted)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handlers) render(w http.ResponseWriter, viewName string, data any) {
	tmpl, err := template.ParseFS(web.TemplatesFS, "templates/base.html", "templates/"+viewName)
	if err != nil {
		slog.Error("template parse error", "view", viewName, "error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		slog.Error("template execution error", "view", viewName, "error", err)
	}
}
