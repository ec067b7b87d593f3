package storage

import (
	"testing"
	"time"

	"budget-tracker/internal/auth"
	"budget-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// UserTestSuite provides a test suite for user operations
type UserTestSuite struct {
	suite.Suite
	db *DB
}

// SetupTest runs before each test
func (suite *UserTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
}

// TearDownTest runs after each test
func (suite *UserTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *UserTestSuite) TestCreateUser() {
	user, err := suite.db.CreateUser("alice", "hash")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "alice", user.Username)
	assert.NotZero(suite.T(), user.ID)
}

func (suite *UserTestSuite) TestCreateUserDuplicate() {
	_, err := suite.db.CreateUser("alice", "hash")
	require.NoError(suite.T(), err)

	_, err = suite.db.CreateUser("alice", "otherhash")
	require.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, ErrUsernameTaken)

	// No second record was created
	count, err := suite.db.UserCount()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count)
}

func (suite *UserTestSuite) TestGetUserByUsername() {
	created, err := suite.db.CreateUser("bob", "hash")
	require.NoError(suite.T(), err)

	user, err := suite.db.GetUserByUsername("bob")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), created.ID, user.ID)

	_, err = suite.db.GetUserByUsername("nobody")
	assert.Error(suite.T(), err, "unknown username should not resolve")
}

// TransactionTestSuite provides a test suite for ledger operations
type TransactionTestSuite struct {
	suite.Suite
	db    *DB
	alice *models.User
	bob   *models.User
}

// SetupTest runs before each test
func (suite *TransactionTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	suite.alice, err = db.CreateUser("alice", "hash")
	require.NoError(suite.T(), err)
	suite.bob, err = db.CreateUser("bob", "hash")
	require.NoError(suite.T(), err)
}

// TearDownTest runs after each test
func (suite *TransactionTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *TransactionTestSuite) TestExpenseStoredNegated() {
	_, err := suite.db.CreateTransaction(suite.alice.ID, "Market", 150.75, models.TypeExpense, "Gıda")
	require.NoError(suite.T(), err)

	transactions, err := suite.db.ListTransactionsByUser(suite.alice.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), transactions, 1)
	assert.Equal(suite.T(), -150.75, transactions[0].Amount)
	assert.Equal(suite.T(), models.TypeExpense, transactions[0].Type)
}

func (suite *TransactionTestSuite) TestIncomeStoredPositive() {
	_, err := suite.db.CreateTransaction(suite.alice.ID, "Salary", 1000, models.TypeIncome, "Maaş")
	require.NoError(suite.T(), err)

	transactions, err := suite.db.ListTransactionsByUser(suite.alice.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), transactions, 1)
	assert.Equal(suite.T(), 1000.0, transactions[0].Amount)
}

func (suite *TransactionTestSuite) TestListNewestFirst() {
	titles := []string{"First", "Second", "Third"}
	for _, title := range titles {
		_, err := suite.db.CreateTransaction(suite.alice.ID, title, 10, models.TypeExpense, "Diğer")
		require.NoError(suite.T(), err, "failed to create transaction: %s", title)
	}

	transactions, err := suite.db.ListTransactionsByUser(suite.alice.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), transactions, 3)

	// Inserted within the same timestamp resolution, so the id tiebreaker
	// must keep the newest insert first.
	assert.Equal(suite.T(), "Third", transactions[0].Title)
	assert.Equal(suite.T(), "Second", transactions[1].Title)
	assert.Equal(suite.T(), "First", transactions[2].Title)
}

func (suite *TransactionTestSuite) TestListScopedToOwner() {
	_, err := suite.db.CreateTransaction(suite.alice.ID, "Alice rent", 500, models.TypeExpense, "Kira")
	require.NoError(suite.T(), err)
	_, err = suite.db.CreateTransaction(suite.bob.ID, "Bob salary", 2000, models.TypeIncome, "Maaş")
	require.NoError(suite.T(), err)

	aliceTx, err := suite.db.ListTransactionsByUser(suite.alice.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), aliceTx, 1)
	assert.Equal(suite.T(), "Alice rent", aliceTx[0].Title)
	assert.Equal(suite.T(), suite.alice.ID, aliceTx[0].UserID)

	bobTx, err := suite.db.ListTransactionsByUser(suite.bob.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), bobTx, 1)
	assert.Equal(suite.T(), "Bob salary", bobTx[0].Title)
}

func (suite *TransactionTestSuite) TestDeleteAllByUser() {
	for i := 0; i < 3; i++ {
		_, err := suite.db.CreateTransaction(suite.alice.ID, "Alice", 10, models.TypeExpense, "Diğer")
		require.NoError(suite.T(), err)
	}
	_, err := suite.db.CreateTransaction(suite.bob.ID, "Bob", 10, models.TypeExpense, "Diğer")
	require.NoError(suite.T(), err)

	deleted, err := suite.db.DeleteTransactionsByUser(suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), deleted)

	aliceTx, err := suite.db.ListTransactionsByUser(suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), aliceTx)

	// Bob's ledger is untouched
	bobTx, err := suite.db.ListTransactionsByUser(suite.bob.ID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), bobTx, 1)
}

func (suite *TransactionTestSuite) TestDeleteAllByUserEmpty() {
	deleted, err := suite.db.DeleteTransactionsByUser(suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), deleted)
}

// SessionTestSuite provides a test suite for session operations
type SessionTestSuite struct {
	suite.Suite
	db   *DB
	user *models.User
}

// SetupTest runs before each test
func (suite *SessionTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	password, err := auth.HashPassword("testpass")
	require.NoError(suite.T(), err, "failed to hash password")

	user, err := suite.db.CreateUser("testuser", password)
	require.NoError(suite.T(), err, "failed to create test user")
	suite.user = user
}

// TearDownTest runs after each test
func (suite *SessionTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *SessionTestSuite) TestCreateAndValidateSession() {
	token, err := auth.GenerateSessionToken()
	require.NoError(suite.T(), err)

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	err = suite.db.CreateSession(token, suite.user.ID, expiresAt)
	require.NoError(suite.T(), err)

	sessionUser, err := suite.db.ValidateSession(token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "testuser", sessionUser.Username)
}

func (suite *SessionTestSuite) TestRenewSession() {
	token, err := auth.GenerateSessionToken()
	require.NoError(suite.T(), err)

	originalExpiry := time.Now().Add(30 * 24 * time.Hour)
	err = suite.db.CreateSession(token, suite.user.ID, originalExpiry)
	require.NoError(suite.T(), err)

	// Wait a moment to ensure timestamps differ
	time.Sleep(10 * time.Millisecond)

	originalInfo, err := suite.db.ValidateSessionWithInfo(token)
	require.NoError(suite.T(), err)

	newExpiry := time.Now().Add(60 * 24 * time.Hour)
	err = suite.db.RenewSession(token, newExpiry)
	require.NoError(suite.T(), err)

	updatedInfo, err := suite.db.ValidateSessionWithInfo(token)
	require.NoError(suite.T(), err)

	assert.True(suite.T(), updatedInfo.LastActivity.After(originalInfo.LastActivity),
		"LastActivity should be updated after renewal")
	assert.True(suite.T(), updatedInfo.ExpiresAt.After(originalInfo.ExpiresAt),
		"ExpiresAt should be extended after renewal")
}

func (suite *SessionTestSuite) TestDeleteSession() {
	token, err := auth.GenerateSessionToken()
	require.NoError(suite.T(), err)

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	err = suite.db.CreateSession(token, suite.user.ID, expiresAt)
	require.NoError(suite.T(), err)

	_, err = suite.db.ValidateSession(token)
	require.NoError(suite.T(), err, "session should exist before deletion")

	err = suite.db.DeleteSession(token)
	require.NoError(suite.T(), err)

	_, err = suite.db.ValidateSession(token)
	assert.Error(suite.T(), err, "expected error after deleting session")
}

func (suite *SessionTestSuite) TestExpiredSessionRejected() {
	token, err := auth.GenerateSessionToken()
	require.NoError(suite.T(), err)

	err = suite.db.CreateSession(token, suite.user.ID, time.Now().Add(-time.Hour))
	require.NoError(suite.T(), err)

	_, err = suite.db.ValidateSession(token)
	assert.Error(suite.T(), err, "expired session should not validate")

	err = suite.db.CleanExpiredSessions()
	assert.NoError(suite.T(), err)
}

// Test suite runners
func TestUserSuite(t *testing.T) {
	suite.Run(t, new(UserTestSuite))
}

func TestTransactionSuite(t *testing.T) {
	suite.Run(t, new(TransactionTestSuite))
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
