package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/Dan9191/finance-tracker/internal/metrics"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/Dan9191/finance-tracker/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TransactionInput holds a new transaction
type TransactionInput struct {
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description"`
	Type        models.TransactionType `json:"type"`
	CategoryID  int64                  `json:"categoryId"`
	Date        *time.Time             `json:"date"`
	Notes       string                 `json:"notes"`
	Tags        []string               `json:"tags"`
	Location    string                 `json:"location"`
	Receipt     string                 `json:"receipt"`
}

// TransactionPatch holds a partial update. Nil fields keep their stored value.
type TransactionPatch struct {
	Amount      *decimal.Decimal        `json:"amount"`
	Description *string                 `json:"description"`
	Type        *models.TransactionType `json:"type"`
	CategoryID  *int64                  `json:"categoryId"`
	Date        *time.Time              `json:"date"`
	Notes       *string                 `json:"notes"`
	Tags        *[]string               `json:"tags"`
	Location    *string                 `json:"location"`
	Receipt     *string                 `json:"receipt"`
}

func (p TransactionPatch) apply(t *models.Transaction) {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Location != nil {
		t.Location = *p.Location
	}
	if p.Receipt != nil {
		t.Receipt = *p.Receipt
	}
}

// LedgerResult is a mutated transaction with the owner's balance after the mutation
type LedgerResult struct {
	Transaction *models.Transaction
	Balance     decimal.Decimal
}

// ListResult is one page of transactions
type ListResult struct {
	Transactions []models.Transaction
	Page         int
	Limit        int
	Total        int64
	Pages        int
}

func validateTransaction(t *models.Transaction) error {
	if err := utils.ValidateAmount(t.Amount); err != nil {
		return err
	}
	if err := utils.ValidateType(t.Type); err != nil {
		return err
	}
	if err := utils.ValidateLength("Description", t.Description, 1, 200); err != nil {
		return err
	}
	if err := utils.ValidateLength("Notes", t.Notes, 0, 500); err != nil {
		return err
	}
	if err := utils.ValidateLength("Location", t.Location, 0, 100); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return models.NewError(models.KindValidation, "Date is required")
	}
	return nil
}

// resolveCategory loads the category inside tx, reporting a missing or foreign one as InvalidCategory
func resolveCategory(ctx context.Context, tx repository.LedgerTx, userID, categoryID int64) (*models.Category, error) {
	category, err := tx.FindCategory(ctx, userID, categoryID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.WrapError(models.KindInvalidCategory, err, "%s", models.ErrInvalidCategory.Message)
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) observe(operation string, err error) {
	result := "ok"
	if err != nil {
		result = strings.ReplaceAll(models.KindOf(err).String(), " ", "_")
	}
	metrics.LedgerMutations.WithLabelValues(operation, result).Inc()
}

// CreateTransaction records a transaction and adds its contribution to the owner's balance
// in one atomic unit.
func (s *Service) CreateTransaction(ctx context.Context, userID int64, in TransactionInput) (*LedgerResult, error) {
	t := &models.Transaction{
		UserID:      userID,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		Notes:       in.Notes,
		Tags:        append([]string{}, in.Tags...),
		Location:    in.Location,
		Receipt:     in.Receipt,
	}
	if in.Date != nil {
		t.Date = *in.Date
	} else {
		t.Date = s.now()
	}
	if err := validateTransaction(t); err != nil {
		s.observe("create", err)
		return nil, err
	}

	var balance decimal.Decimal
	err := s.repo.WithLedgerTx(ctx, userID, func(tx repository.LedgerTx) error {
		category, err := resolveCategory(ctx, tx, userID, t.CategoryID)
		if err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		t.Category = category.Summary()
		balance, err = tx.AdjustBalance(ctx, userID, t.Contribution())
		return err
	})
	s.observe("create", err)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": t.ID,
		"type":           t.Type,
		"amount":         t.Amount.StringFixed(2),
		"balance":        balance.StringFixed(2),
	}).Info("Transaction created")
	return &LedgerResult{Transaction: t, Balance: balance}, nil
}

// UpdateTransaction overlays patch on the stored transaction and moves the owner's
// balance by the difference between the new and the old contribution.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id int64, patch TransactionPatch) (*LedgerResult, error) {
	var (
		updated *models.Transaction
		balance decimal.Decimal
	)
	err := s.repo.WithLedgerTx(ctx, userID, func(tx repository.LedgerTx) error {
		old, err := tx.FindTransaction(ctx, userID, id)
		if err != nil {
			return err
		}

		merged := *old
		merged.Tags = append([]string{}, old.Tags...)
		patch.apply(&merged)
		if err := validateTransaction(&merged); err != nil {
			return err
		}
		if merged.CategoryID != old.CategoryID {
			category, err := resolveCategory(ctx, tx, userID, merged.CategoryID)
			if err != nil {
				return err
			}
			merged.Category = category.Summary()
		}

		if err := tx.UpdateTransaction(ctx, &merged); err != nil {
			return err
		}
		delta := merged.Contribution().Sub(old.Contribution())
		balance, err = tx.AdjustBalance(ctx, userID, delta)
		if err != nil {
			return err
		}
		updated = &merged
		return nil
	})
	s.observe("update", err)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": id,
		"balance":        balance.StringFixed(2),
	}).Info("Transaction updated")
	return &LedgerResult{Transaction: updated, Balance: balance}, nil
}

// DeleteTransaction removes a transaction and reverses its contribution
func (s *Service) DeleteTransaction(ctx context.Context, userID, id int64) (*LedgerResult, error) {
	var (
		deleted *models.Transaction
		balance decimal.Decimal
	)
	err := s.repo.WithLedgerTx(ctx, userID, func(tx repository.LedgerTx) error {
		t, err := tx.FindTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		balance, err = tx.AdjustBalance(ctx, userID, t.Contribution().Neg())
		if err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, userID, id); err != nil {
			return err
		}
		deleted = t
		return nil
	})
	s.observe("delete", err)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": id,
		"balance":        balance.StringFixed(2),
	}).Info("Transaction deleted")
	return &LedgerResult{Transaction: deleted, Balance: balance}, nil
}

// GetTransaction returns one of the user's transactions
func (s *Service) GetTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	return s.repo.FindTransaction(ctx, userID, id)
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListTransactions returns a page of the user's transactions, newest first
func (s *Service) ListTransactions(ctx context.Context, filter models.TransactionFilter, page int) (*ListResult, error) {
	if filter.Type != "" {
		if err := utils.ValidateType(filter.Type); err != nil {
			return nil, err
		}
	}
	if page < 1 {
		page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	filter.Offset = (page - 1) * filter.Limit

	transactions, total, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Transactions: transactions,
		Page:         page,
		Limit:        filter.Limit,
		Total:        total,
		Pages:        int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}
