package service

import (
	"context"
	"strings"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/utils"
	"github.com/sirupsen/logrus"
)

// CategoryInput holds a new category
type CategoryInput struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Color       string                 `json:"color"`
	Icon        string                 `json:"icon"`
	Type        models.TransactionType `json:"type"`
}

// CategoryPatch holds a partial category update
type CategoryPatch struct {
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	Color       *string                 `json:"color"`
	Icon        *string                 `json:"icon"`
	Type        *models.TransactionType `json:"type"`
}

func validateCategory(c *models.Category) error {
	if err := utils.ValidateLength("Name", c.Name, 1, 50); err != nil {
		return err
	}
	if err := utils.ValidateLength("Description", c.Description, 0, 200); err != nil {
		return err
	}
	if err := utils.ValidateColor(c.Color); err != nil {
		return err
	}
	if err := utils.ValidateLength("Icon", c.Icon, 1, 50); err != nil {
		return err
	}
	return utils.ValidateType(c.Type)
}

// ListCategories returns the user's categories, optionally of one type
func (s *Service) ListCategories(ctx context.Context, userID int64, typ models.TransactionType) ([]models.Category, error) {
	if typ != "" {
		if err := utils.ValidateType(typ); err != nil {
			return nil, err
		}
	}
	return s.repo.ListCategories(ctx, userID, typ)
}

// GetCategory returns one of the user's categories
func (s *Service) GetCategory(ctx context.Context, userID, id int64) (*models.Category, error) {
	return s.repo.FindCategory(ctx, userID, id)
}

// CreateCategory creates a user category. Categories created here are never default.
func (s *Service) CreateCategory(ctx context.Context, userID int64, in CategoryInput) (*models.Category, error) {
	c := &models.Category{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
		Type:        in.Type,
	}
	if c.Color == "" {
		c.Color = models.DefaultCategoryColor
	}
	if c.Icon == "" {
		c.Icon = models.DefaultCategoryIcon
	}
	if err := validateCategory(c); err != nil {
		return nil, err
	}

	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "category_id": c.ID}).Info("Category created")
	return c, nil
}

// UpdateCategory edits a non-default category
func (s *Service) UpdateCategory(ctx context.Context, userID, id int64, patch CategoryPatch) (*models.Category, error) {
	c, err := s.repo.FindCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if c.IsDefault {
		return nil, models.NewError(models.KindProtected, "Cannot update default category")
	}

	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	if patch.Icon != nil {
		c.Icon = *patch.Icon
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if err := validateCategory(c); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "category_id": id}).Info("Category updated")
	return c, nil
}

// DeleteCategory removes a non-default category that no transaction references
func (s *Service) DeleteCategory(ctx context.Context, userID, id int64) error {
	c, err := s.repo.FindCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if c.IsDefault {
		return models.NewError(models.KindProtected, "Cannot delete default category")
	}

	if err := s.repo.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "category_id": id}).Info("Category deleted")
	return nil
}

// SeedDefaultCategories creates the default categories the user does not have yet
// and returns all of the user's default categories. Repeated calls add nothing.
func (s *Service) SeedDefaultCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	if err := s.repo.UpsertCategories(ctx, userID, models.DefaultCategories); err != nil {
		return nil, err
	}
	categories, err := s.repo.ListDefaultCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "count": len(categories)}).Info("Default categories seeded")
	return categories, nil
}
