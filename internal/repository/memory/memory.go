// Package memory is an in-process implementation of repository.Store.
//
// A single mutex serializes every operation. WithLedgerTx keeps the mutex for
// the whole closure and records an undo step for each write, which are
// replayed in reverse when the closure fails.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/shopspring/decimal"
)

// Store keeps users, categories and transactions in maps keyed by id
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users        map[int64]*models.User
	categories   map[int64]*models.Category
	transactions map[int64]*models.Transaction

	nextUserID        int64
	nextCategoryID    int64
	nextTransactionID int64
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store
func New() *Store {
	return &Store{
		now:          time.Now,
		users:        make(map[int64]*models.User),
		categories:   make(map[int64]*models.Category),
		transactions: make(map[int64]*models.Transaction),
	}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyCategory(c *models.Category) *models.Category {
	cp := *c
	return &cp
}

// copyTransaction returns a detached copy with its category summary filled in
func (s *Store) copyTransaction(t *models.Transaction) *models.Transaction {
	cp := *t
	cp.Tags = append([]string{}, t.Tags...)
	if c, ok := s.categories[t.CategoryID]; ok {
		cp.Category = c.Summary()
	}
	return &cp
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	s.nextUserID++
	now := s.now()
	user.ID = s.nextUserID
	user.TotalBalance = decimal.Zero
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *Store) UserExists(ctx context.Context, email, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateUserProfile(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.FirstName, u.LastName, u.Currency, u.Avatar = user.FirstName, user.LastName, user.Currency, user.Avatar
	u.UpdatedAt = s.now()
	user.TotalBalance, user.UpdatedAt = u.TotalBalance, u.UpdatedAt
	return nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) ListCategories(ctx context.Context, userID int64, typ models.TransactionType) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := []models.Category{}
	for _, c := range s.categories {
		if c.UserID == userID && (typ == "" || c.Type == typ) {
			categories = append(categories, *c)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if !categories[i].CreatedAt.Equal(categories[j].CreatedAt) {
			return categories[i].CreatedAt.After(categories[j].CreatedAt)
		}
		return categories[i].ID > categories[j].ID
	})
	return categories, nil
}

func (s *Store) findCategory(userID, id int64) (*models.Category, error) {
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrCategoryNotFound
	}
	return copyCategory(c), nil
}

func (s *Store) FindCategory(ctx context.Context, userID, id int64) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCategory(userID, id)
}

// nameTaken enforces the (user_id, name) unique key
func (s *Store) nameTaken(userID int64, name string, exceptID int64) bool {
	for _, c := range s.categories {
		if c.UserID == userID && c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) insertCategory(c *models.Category) {
	s.nextCategoryID++
	now := s.now()
	c.ID = s.nextCategoryID
	c.CreatedAt, c.UpdatedAt = now, now
	s.categories[c.ID] = copyCategory(c)
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[c.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	if s.nameTaken(c.UserID, c.Name, 0) {
		return repository.ErrDuplicate
	}
	s.insertCategory(c)
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.categories[c.ID]
	if !ok || stored.UserID != c.UserID {
		return repository.ErrCategoryNotFound
	}
	if s.nameTaken(c.UserID, c.Name, c.ID) {
		return repository.ErrDuplicate
	}
	stored.Name, stored.Description, stored.Color, stored.Icon, stored.Type = c.Name, c.Description, c.Color, c.Icon, c.Type
	stored.UpdatedAt = s.now()
	c.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return repository.ErrCategoryNotFound
	}
	for _, t := range s.transactions {
		if t.CategoryID == id {
			return repository.ErrCategoryInUse
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) UpsertCategories(ctx context.Context, userID int64, categories []models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, c := range categories {
		if s.nameTaken(userID, c.Name, 0) {
			continue
		}
		c.UserID = userID
		s.insertCategory(&c)
	}
	return nil
}

func (s *Store) ListDefaultCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := []models.Category{}
	for _, c := range s.categories {
		if c.UserID == userID && c.IsDefault {
			categories = append(categories, *c)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (s *Store) ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Transaction
	for _, t := range s.transactions {
		switch {
		case t.UserID != f.UserID:
		case f.Type != "" && t.Type != f.Type:
		case f.CategoryID != 0 && t.CategoryID != f.CategoryID:
		case f.StartDate != nil && t.Date.Before(*f.StartDate):
		case f.EndDate != nil && t.Date.After(*f.EndDate):
		default:
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID > matched[j].ID
	})

	transactions := []models.Transaction{}
	for i := f.Offset; i < len(matched) && (f.Limit <= 0 || i < f.Offset+f.Limit); i++ {
		transactions = append(transactions, *s.copyTransaction(matched[i]))
	}
	return transactions, int64(len(matched)), nil
}

func (s *Store) findTransaction(userID, id int64) (*models.Transaction, error) {
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrTransactionNotFound
	}
	return s.copyTransaction(t), nil
}

func (s *Store) FindTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findTransaction(userID, id)
}

type aggregate struct {
	total decimal.Decimal
	count int64
}

func (a aggregate) avg() decimal.Decimal {
	return a.total.Div(decimal.NewFromInt(a.count)).Round(2)
}

func (s *Store) inWindow(t *models.Transaction, userID int64, since time.Time) bool {
	return t.UserID == userID && (since.IsZero() || !t.Date.Before(since))
}

func (s *Store) TypeStats(ctx context.Context, userID int64, since time.Time) ([]models.TypeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType := map[models.TransactionType]*aggregate{}
	for _, t := range s.transactions {
		if !s.inWindow(t, userID, since) {
			continue
		}
		a, ok := byType[t.Type]
		if !ok {
			a = &aggregate{}
			byType[t.Type] = a
		}
		a.total = a.total.Add(t.Amount)
		a.count++
	}

	stats := []models.TypeStats{}
	for typ, a := range byType {
		stats = append(stats, models.TypeStats{Type: typ, Total: a.total, Count: a.count, AvgAmount: a.avg()})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Type < stats[j].Type })
	return stats, nil
}

func (s *Store) CategoryStats(ctx context.Context, userID int64, since time.Time) ([]models.CategoryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCategory := map[int64]*aggregate{}
	for _, t := range s.transactions {
		if !s.inWindow(t, userID, since) {
			continue
		}
		a, ok := byCategory[t.CategoryID]
		if !ok {
			a = &aggregate{}
			byCategory[t.CategoryID] = a
		}
		a.total = a.total.Add(t.Amount)
		a.count++
	}

	stats := []models.CategoryStats{}
	for id, a := range byCategory {
		cs := models.CategoryStats{CategoryID: id, Total: a.total, Count: a.count, AvgAmount: a.avg()}
		if c, ok := s.categories[id]; ok {
			cs.Category = c.Summary()
		}
		stats = append(stats, cs)
	}
	sort.Slice(stats, func(i, j int) bool {
		if c := stats[i].Total.Cmp(stats[j].Total); c != 0 {
			return c > 0
		}
		return stats[i].CategoryID < stats[j].CategoryID
	})
	return stats, nil
}

func (s *Store) WithLedgerTx(ctx context.Context, userID int64, fn func(tx repository.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.users[userID]; !ok {
		return repository.ErrUserNotFound
	}

	tx := &ledgerTx{s: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type ledgerTx struct {
	s    *Store
	undo []func()
}

func (l *ledgerTx) rollback() {
	for i := len(l.undo) - 1; i >= 0; i-- {
		l.undo[i]()
	}
	l.undo = nil
}

func (l *ledgerTx) FindCategory(ctx context.Context, userID, id int64) (*models.Category, error) {
	return l.s.findCategory(userID, id)
}

func (l *ledgerTx) FindTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	return l.s.findTransaction(userID, id)
}

func (l *ledgerTx) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c, ok := l.s.categories[t.CategoryID]; !ok || c.UserID != t.UserID {
		return repository.ErrCategoryNotFound
	}
	s := l.s
	s.nextTransactionID++
	now := s.now()
	t.ID = s.nextTransactionID
	t.CreatedAt, t.UpdatedAt = now, now
	stored := *t
	stored.Tags = append([]string{}, t.Tags...)
	stored.Category = nil
	s.transactions[t.ID] = &stored

	id := t.ID
	l.undo = append(l.undo, func() { delete(s.transactions, id) })
	return nil
}

func (l *ledgerTx) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := l.s
	old, ok := s.transactions[t.ID]
	if !ok || old.UserID != t.UserID {
		return repository.ErrTransactionNotFound
	}
	if c, ok := s.categories[t.CategoryID]; !ok || c.UserID != t.UserID {
		return repository.ErrCategoryNotFound
	}
	t.UpdatedAt = s.now()
	stored := *t
	stored.Tags = append([]string{}, t.Tags...)
	stored.Category = nil
	s.transactions[t.ID] = &stored

	l.undo = append(l.undo, func() { s.transactions[old.ID] = old })
	return nil
}

func (l *ledgerTx) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := l.s
	old, ok := s.transactions[id]
	if !ok || old.UserID != userID {
		return repository.ErrTransactionNotFound
	}
	delete(s.transactions, id)

	l.undo = append(l.undo, func() { s.transactions[id] = old })
	return nil
}

func (l *ledgerTx) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	u, ok := l.s.users[userID]
	if !ok {
		return decimal.Zero, repository.ErrUserNotFound
	}
	return u.TotalBalance, nil
}

func (l *ledgerTx) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	u, ok := l.s.users[userID]
	if !ok {
		return decimal.Zero, repository.ErrUserNotFound
	}
	if err := l.SetBalance(ctx, userID, u.TotalBalance.Add(delta)); err != nil {
		return decimal.Zero, err
	}
	return u.TotalBalance, nil
}

func (l *ledgerTx) SetBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u, ok := l.s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	prev, prevUpdated := u.TotalBalance, u.UpdatedAt
	u.TotalBalance = balance
	u.UpdatedAt = l.s.now()

	l.undo = append(l.undo, func() { u.TotalBalance, u.UpdatedAt = prev, prevUpdated })
	return nil
}

func (l *ledgerTx) SumContributions(ctx context.Context, userID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range l.s.transactions {
		if t.UserID == userID {
			sum = sum.Add(t.Contribution())
		}
	}
	return sum, nil
}
