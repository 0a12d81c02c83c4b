package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Dan9191/finance-tracker/internal/models"
)

func TestDefaultCategoriesAreProtected(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	u := registerUser(t, s, "alice")

	seeded, err := s.SeedDefaultCategories(ctx, u.ID)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(seeded) != len(models.DefaultCategories) {
		t.Fatalf("seeded %d categories, want %d", len(seeded), len(models.DefaultCategories))
	}
	again, err := s.SeedDefaultCategories(ctx, u.ID)
	if err != nil {
		t.Fatalf("seed again: %v", err)
	}
	if len(again) != len(seeded) {
		t.Fatalf("second seed returned %d categories", len(again))
	}

	def := seeded[0]
	name := "Renamed"
	if _, err := s.UpdateCategory(ctx, u.ID, def.ID, CategoryPatch{Name: &name}); !errors.Is(err, models.ErrProtected) {
		t.Fatalf("update default: got %v", err)
	}
	if err := s.DeleteCategory(ctx, u.ID, def.ID); !errors.Is(err, models.ErrProtected) {
		t.Fatalf("delete default: got %v", err)
	}

	got, err := s.GetCategory(ctx, u.ID, def.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != def.Name || !got.IsDefault {
		t.Fatalf("default category changed: %+v", got)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	u := registerUser(t, s, "bob")

	c := createCategory(t, s, u.ID, "Hobbies", models.Expense)
	if c.IsDefault || c.Color != models.DefaultCategoryColor || c.Icon != models.DefaultCategoryIcon {
		t.Fatalf("unexpected category %+v", c)
	}

	if _, err := s.CreateCategory(ctx, u.ID, CategoryInput{Name: "Hobbies", Type: models.Expense}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("duplicate name: got %v", err)
	}
	if _, err := s.CreateCategory(ctx, u.ID, CategoryInput{Name: "Paint", Type: models.Expense, Color: "red"}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("bad color: got %v", err)
	}

	color := "#ff0000"
	upd, err := s.UpdateCategory(ctx, u.ID, c.ID, CategoryPatch{Color: &color})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Color != color || upd.Name != "Hobbies" {
		t.Fatalf("unexpected update %+v", upd)
	}

	res, err := s.CreateTransaction(ctx, u.ID, TransactionInput{Amount: dec("30"), Type: models.Expense,
		CategoryID: c.ID, Description: "paint"})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if err := s.DeleteCategory(ctx, u.ID, c.ID); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("delete category in use: got %v", err)
	}
	if _, err := s.DeleteTransaction(ctx, u.ID, res.Transaction.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if err := s.DeleteCategory(ctx, u.ID, c.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if _, err := s.GetCategory(ctx, u.ID, c.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("get deleted: got %v", err)
	}
}

func TestListCategoriesByType(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, nil)
	u := registerUser(t, s, "carol")
	other := registerUser(t, s, "dave")
	createCategory(t, s, u.ID, "Salary", models.Income)
	createCategory(t, s, u.ID, "Food", models.Expense)
	createCategory(t, s, other.ID, "Bonus", models.Income)

	all, err := s.ListCategories(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d categories", len(all))
	}
	incomes, err := s.ListCategories(ctx, u.ID, models.Income)
	if err != nil {
		t.Fatalf("list incomes: %v", err)
	}
	if len(incomes) != 1 || incomes[0].Name != "Salary" {
		t.Fatalf("unexpected incomes %+v", incomes)
	}
	if _, err := s.ListCategories(ctx, u.ID, "gift"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("bad type: got %v", err)
	}
	if _, err := s.GetCategory(ctx, other.ID, all[0].ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("foreign category: got %v", err)
	}
}
