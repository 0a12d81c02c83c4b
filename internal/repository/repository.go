package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides database operations on PostgreSQL
type Repository struct {
	db          *sql.DB
	lockTimeout time.Duration
}

var _ Store = (*Repository)(nil)

// NewRepository initializes a new repository. lockTimeout bounds the wait for
// a user's balance lock; zero waits for the server's default.
func NewRepository(db *sql.DB, lockTimeout time.Duration) *Repository {
	return &Repository{db: db, lockTimeout: lockTimeout}
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// mapError translates PostgreSQL errors into domain errors
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		return models.WrapError(models.KindValidation, err, "%s", ErrDuplicate.Message)
	case "23503": // foreign_key_violation
		return models.WrapError(models.KindValidation, err, "Referenced record does not exist or is still in use")
	case "23514", "22001", "22003": // check_violation, string_data_right_truncation, numeric_value_out_of_range
		return models.WrapError(models.KindValidation, err, "Invalid field value")
	case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
		return models.WrapError(models.KindConflict, err, "%s", ErrConcurrentUpdate.Message)
	}
	return err
}

const userColumns = `id, username, email, password_hash, first_name, last_name, avatar, total_balance, currency, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Avatar, &user.TotalBalance, &user.Currency, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, first_name, last_name, avatar, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, total_balance, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.FirstName,
		user.LastName, user.Avatar, user.Currency).
		Scan(&user.ID, &user.TotalBalance, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UserExists reports whether the email or the username is taken
func (r *Repository) UserExists(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`
	if err := r.db.QueryRowContext(ctx, query, email, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

// UpdateUserProfile stores the editable profile fields. The balance is left alone.
func (r *Repository) UpdateUserProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, currency = $4, avatar = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING total_balance, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.FirstName, user.LastName, user.Currency, user.Avatar).
		Scan(&user.TotalBalance, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", mapError(err))
	}
	return nil
}

// ListUserIDs returns the ids of every user
func (r *Repository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const categoryColumns = `id, user_id, name, description, color, icon, type, is_default, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (*models.Category, error) {
	c := &models.Category{}
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Color, &c.Icon, &c.Type, &c.IsDefault,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func queryCategories(ctx context.Context, q querier, query string, args ...any) ([]models.Category, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// ListCategories returns the user's categories, newest first, optionally of one type
func (r *Repository) ListCategories(ctx context.Context, userID int64, typ models.TransactionType) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1`
	args := []any{userID}
	if typ != "" {
		query += ` AND type = $2`
		args = append(args, typ)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return queryCategories(ctx, r.db, query, args...)
}

func findCategory(ctx context.Context, q querier, userID, id int64) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 AND user_id = $2`
	c, err := scanCategory(q.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return c, nil
}

// FindCategory retrieves a category owned by the user
func (r *Repository) FindCategory(ctx context.Context, userID, id int64) (*models.Category, error) {
	return findCategory(ctx, r.db, userID, id)
}

// CreateCategory creates a new category
func (r *Repository) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (user_id, name, description, color, icon, type, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, c.UserID, c.Name, c.Description, c.Color, c.Icon, c.Type, c.IsDefault).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", mapError(err))
	}
	return nil
}

// UpdateCategory stores the editable fields of a category
func (r *Repository) UpdateCategory(ctx context.Context, c *models.Category) error {
	query := `
		UPDATE categories
		SET name = $3, description = $4, color = $5, icon = $6, type = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.UserID, c.Name, c.Description, c.Color, c.Icon, c.Type).
		Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", mapError(err))
	}
	return nil
}

// DeleteCategory removes a category. Categories still referenced by
// transactions are refused by the foreign key.
func (r *Repository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrCategoryInUse
		}
		return fmt.Errorf("failed to delete category: %w", mapError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// UpsertCategories inserts categories keyed on (user_id, name), leaving existing names untouched
func (r *Repository) UpsertCategories(ctx context.Context, userID int64, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	var (
		values []string
		args   []any
	)
	for i, c := range categories {
		n := i * 7
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7))
		args = append(args, userID, c.Name, c.Description, c.Color, c.Icon, c.Type, c.IsDefault)
	}
	query := `
		INSERT INTO categories (user_id, name, description, color, icon, type, is_default, created_at, updated_at)
		VALUES ` + strings.Join(values, ", ") + `
		ON CONFLICT (user_id, name) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert categories: %w", mapError(err))
	}
	return nil
}

// ListDefaultCategories returns the user's protected categories in seeding order
func (r *Repository) ListDefaultCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND is_default ORDER BY id`
	return queryCategories(ctx, r.db, query, userID)
}

const transactionColumns = `
	t.id, t.user_id, t.category_id, t.amount, t.description, t.type, t.date, t.notes, t.tags, t.location,
	t.receipt, t.created_at, t.updated_at, c.id, c.name, c.color, c.icon`

const transactionFrom = ` FROM transactions t JOIN categories c ON c.id = t.category_id`

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	t := &models.Transaction{Category: &models.CategorySummary{}}
	var tags []byte
	err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Amount, &t.Description, &t.Type, &t.Date, &t.Notes, &tags,
		&t.Location, &t.Receipt, &t.CreatedAt, &t.UpdatedAt,
		&t.Category.ID, &t.Category.Name, &t.Category.Color, &t.Category.Icon)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &t.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return t, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

// ListTransactions returns one page of the user's transactions, newest first, and the total match count
func (r *Repository) ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, int64, error) {
	where := []string{"t.user_id = $1"}
	args := []any{f.UserID}
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Type != "" {
		add("t.type = $%d", f.Type)
	}
	if f.CategoryID != 0 {
		add("t.category_id = $%d", f.CategoryID)
	}
	if f.StartDate != nil {
		add("t.date >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("t.date <= $%d", *f.EndDate)
	}
	cond := " WHERE " + strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions t`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + transactionFrom + cond +
		fmt.Sprintf(` ORDER BY t.date DESC, t.id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, total, rows.Err()
}

func findTransaction(ctx context.Context, q querier, userID, id int64, lock bool) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + transactionFrom + ` WHERE t.id = $1 AND t.user_id = $2`
	if lock {
		query += ` FOR UPDATE OF t`
	}
	t, err := scanTransaction(q.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", mapError(err))
	}
	return t, nil
}

// FindTransaction retrieves a transaction owned by the user
func (r *Repository) FindTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	return findTransaction(ctx, r.db, userID, id, false)
}

// TypeStats returns sum, count and average amount per transaction type
func (r *Repository) TypeStats(ctx context.Context, userID int64, since time.Time) ([]models.TypeStats, error) {
	query := `
		SELECT type, SUM(amount), COUNT(*), ROUND(AVG(amount), 2)
		FROM transactions
		WHERE user_id = $1`
	args := []any{userID}
	if !since.IsZero() {
		query += ` AND date >= $2`
		args = append(args, since)
	}
	query += ` GROUP BY type ORDER BY type`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by type: %w", err)
	}
	defer rows.Close()

	stats := []models.TypeStats{}
	for rows.Next() {
		var s models.TypeStats
		if err := rows.Scan(&s.Type, &s.Total, &s.Count, &s.AvgAmount); err != nil {
			return nil, fmt.Errorf("failed to scan type stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// CategoryStats returns sum, count and average amount per category, largest total first
func (r *Repository) CategoryStats(ctx context.Context, userID int64, since time.Time) ([]models.CategoryStats, error) {
	query := `
		SELECT t.category_id, SUM(t.amount) AS total, COUNT(t.id), ROUND(AVG(t.amount), 2), c.name, c.color, c.icon
		FROM transactions t JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1`
	args := []any{userID}
	if !since.IsZero() {
		query += ` AND t.date >= $2`
		args = append(args, since)
	}
	query += ` GROUP BY t.category_id, c.id ORDER BY total DESC, t.category_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by category: %w", err)
	}
	defer rows.Close()

	stats := []models.CategoryStats{}
	for rows.Next() {
		s := models.CategoryStats{Category: &models.CategorySummary{}}
		if err := rows.Scan(&s.CategoryID, &s.Total, &s.Count, &s.AvgAmount,
			&s.Category.Name, &s.Category.Color, &s.Category.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		s.Category.ID = s.CategoryID
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// WithLedgerTx runs fn inside a database transaction that starts by locking
// the user row. Concurrent mutations of the same user queue on that lock;
// a wait longer than the lock timeout fails with a conflict.
func (r *Repository) WithLedgerTx(ctx context.Context, userID int64, fn func(tx LedgerTx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapError(err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if r.lockTimeout > 0 {
		// SET does not take bind parameters
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", mapError(err))
	}

	if err = fn(&ledgerTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (l *ledgerTx) FindCategory(ctx context.Context, userID, id int64) (*models.Category, error) {
	return findCategory(ctx, l.tx, userID, id)
}

func (l *ledgerTx) FindTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	return findTransaction(ctx, l.tx, userID, id, true)
}

func (l *ledgerTx) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO transactions (user_id, category_id, amount, description, type, date, notes, tags, location, receipt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err = l.tx.QueryRowContext(ctx, query, t.UserID, t.CategoryID, t.Amount, t.Description, t.Type, t.Date,
		t.Notes, tags, t.Location, t.Receipt).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", mapError(err))
	}
	return nil
}

func (l *ledgerTx) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	query := `
		UPDATE transactions
		SET category_id = $3, amount = $4, description = $5, type = $6, date = $7, notes = $8,
		    tags = $9::jsonb, location = $10, receipt = $11, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`
	err = l.tx.QueryRowContext(ctx, query, t.ID, t.UserID, t.CategoryID, t.Amount, t.Description, t.Type, t.Date,
		t.Notes, tags, t.Location, t.Receipt).
		Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTransactionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", mapError(err))
	}
	return nil
}

func (l *ledgerTx) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := l.tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", mapError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (l *ledgerTx) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.tx.QueryRowContext(ctx, `SELECT total_balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

func (l *ledgerTx) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	query := `
		UPDATE users SET total_balance = total_balance + $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING total_balance`
	err := l.tx.QueryRowContext(ctx, query, userID, delta).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", mapError(err))
	}
	return balance, nil
}

func (l *ledgerTx) SetBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	res, err := l.tx.ExecContext(ctx,
		`UPDATE users SET total_balance = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, userID, balance)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", mapError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (l *ledgerTx) SumContributions(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE user_id = $1`
	if err := l.tx.QueryRowContext(ctx, query, userID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}
