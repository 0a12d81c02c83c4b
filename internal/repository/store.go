package repository

import (
	"context"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/shopspring/decimal"
)

// Store is the persistent state of the tracker. Lookups of absent rows return
// a models.KindNotFound error, constraint violations a models.KindValidation error.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	UserExists(ctx context.Context, email, username string) (bool, error)
	UpdateUserProfile(ctx context.Context, user *models.User) error
	ListUserIDs(ctx context.Context) ([]int64, error)

	ListCategories(ctx context.Context, userID int64, typ models.TransactionType) ([]models.Category, error)
	FindCategory(ctx context.Context, userID, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, userID, id int64) error
	// UpsertCategories inserts the categories, skipping names the user already has
	UpsertCategories(ctx context.Context, userID int64, categories []models.Category) error
	ListDefaultCategories(ctx context.Context, userID int64) ([]models.Category, error)

	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int64, error)
	FindTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error)

	// TypeStats and CategoryStats aggregate transactions dated at or after since.
	// A zero since means no lower bound.
	TypeStats(ctx context.Context, userID int64, since time.Time) ([]models.TypeStats, error)
	CategoryStats(ctx context.Context, userID int64, since time.Time) ([]models.CategoryStats, error)

	// WithLedgerTx runs fn as one atomic unit while holding the lock on the
	// user's balance. Any error returned by fn discards every write made through tx.
	WithLedgerTx(ctx context.Context, userID int64, fn func(tx LedgerTx) error) error

	Ping(ctx context.Context) error
}

// LedgerTx is the set of writes allowed inside WithLedgerTx
type LedgerTx interface {
	FindCategory(ctx context.Context, userID, id int64) (*models.Category, error)
	FindTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error)
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id int64) error

	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
	// AdjustBalance adds delta to the user's balance and returns the new value
	AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error)
	SetBalance(ctx context.Context, userID int64, balance decimal.Decimal) error
	// SumContributions recomputes the balance from the user's transactions
	SumContributions(ctx context.Context, userID int64) (decimal.Decimal, error)
}

var (
	ErrUserNotFound        = models.NewError(models.KindNotFound, "User not found")
	ErrCategoryNotFound    = models.NewError(models.KindNotFound, "Category not found")
	ErrTransactionNotFound = models.NewError(models.KindNotFound, "Transaction not found")
	ErrCategoryInUse       = models.NewError(models.KindValidation, "Cannot delete category with existing transactions")
	ErrDuplicate           = models.NewError(models.KindValidation, "Duplicate field value entered")
	ErrConcurrentUpdate    = models.NewError(models.KindConflict, "Balance is being updated concurrently, please retry")
)
