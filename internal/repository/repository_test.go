package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		code    pq.ErrorCode
		kind    models.ErrorKind
		message string
	}{
		{"23505", models.KindValidation, ErrDuplicate.Message},
		{"23503", models.KindValidation, "Referenced record does not exist or is still in use"},
		{"23514", models.KindValidation, "Invalid field value"},
		{"40001", models.KindConflict, ErrConcurrentUpdate.Message},
		{"40P01", models.KindConflict, ErrConcurrentUpdate.Message},
		{"55P03", models.KindConflict, ErrConcurrentUpdate.Message},
		{"42P01", models.KindInternal, ""},
	}
	for _, tc := range cases {
		cause := &pq.Error{Code: tc.code}
		err := mapError(fmt.Errorf("exec: %w", cause))
		if got := models.KindOf(err); got != tc.kind {
			t.Fatalf("code %s: got %v, want %v", tc.code, got, tc.kind)
		}
		if tc.message == "" {
			continue
		}
		var e *models.Error
		if !errors.As(err, &e) {
			t.Fatalf("code %s: not a domain error", tc.code)
		}
		if e.Message != tc.message {
			t.Fatalf("code %s: message %q, want %q", tc.code, e.Message, tc.message)
		}
		if !errors.Is(err, cause) {
			t.Fatalf("code %s: cause lost", tc.code)
		}
	}
	if err := mapError(sql.ErrConnDone); !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("non-pq errors must pass through")
	}
}

// openTestDB connects to TEST_DB_CONN, migrates it and wipes the tables
func openTestDB(t *testing.T) *Repository {
	t.Helper()
	conn := os.Getenv("TEST_DB_CONN")
	if conn == "" {
		t.Skip("TEST_DB_CONN not set")
	}
	if err := RunMigrations(conn, false); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := sql.Open("postgres", conn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(`TRUNCATE transactions, categories, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewRepository(db, 5*time.Second)
}

func TestPostgresLedger(t *testing.T) {
	r := openTestDB(t)
	ctx := context.Background()

	u := &models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x", FirstName: "Bob", LastName: "B",
		Currency: models.DefaultCurrency}
	if err := r.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	c := &models.Category{UserID: u.ID, Name: "Salary", Type: models.Income, Color: "#00b894", Icon: "work"}
	if err := r.CreateCategory(ctx, c); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if err := r.CreateCategory(ctx, &models.Category{UserID: u.ID, Name: "Salary", Type: models.Income}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("duplicate category: got %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.WithLedgerTx(ctx, u.ID, func(tx LedgerTx) error {
				tr := &models.Transaction{UserID: u.ID, CategoryID: c.ID, Type: models.Income,
					Amount: decimal.NewFromInt(50), Description: "pay", Date: time.Now(), Tags: []string{"work"}}
				if err := tx.InsertTransaction(ctx, tr); err != nil {
					return err
				}
				_, err := tx.AdjustBalance(ctx, u.ID, tr.Contribution())
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("ledger tx: %v", err)
		}
	}

	got, err := r.FindUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if !got.TotalBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance = %s, want 100", got.TotalBalance)
	}

	if err := r.DeleteCategory(ctx, u.ID, c.ID); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("expected category in use, got %v", err)
	}

	stats, err := r.TypeStats(ctx, u.ID, time.Time{})
	if err != nil {
		t.Fatalf("type stats: %v", err)
	}
	if len(stats) != 1 || stats[0].Count != 2 || !stats[0].AvgAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
