package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dan9191/finance-tracker/internal/integrations/cbr"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput holds the registration form
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Currency  string `json:"currency"`
}

// ProfileInput holds profile edits. Nil fields are left unchanged.
type ProfileInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Currency  *string `json:"currency"`
	Avatar    *string `json:"avatar"`
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	User  *models.User
	Token string
}

// ConvertedBalance is a user's balance expressed in another currency
type ConvertedBalance struct {
	Currency         string          `json:"currency"`
	Balance          decimal.Decimal `json:"balance"`
	TargetCurrency   string          `json:"targetCurrency"`
	ConvertedBalance decimal.Decimal `json:"convertedBalance"`
}

var errInvalidCredentials = models.NewError(models.KindUnauthorized, "Invalid credentials")

func validateRegister(in RegisterInput) error {
	if err := utils.ValidateLength("Username", in.Username, 3, 50); err != nil {
		return err
	}
	if err := utils.ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := utils.ValidateLength("Password", in.Password, 6, 72); err != nil {
		return err
	}
	if err := utils.ValidateLength("First name", in.FirstName, 1, 50); err != nil {
		return err
	}
	if err := utils.ValidateLength("Last name", in.LastName, 1, 50); err != nil {
		return err
	}
	return utils.ValidateCurrency(in.Currency)
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = models.DefaultCurrency
	}
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, in.Email, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewError(models.KindValidation, "User with this email or username already exists")
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Currency:     in.Currency,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken(s.config.JWTSecret, user.ID, s.config.JWTTTL)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.SendWelcome(user.Email, user.FirstName); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("Welcome email not sent")
		}
	}

	s.log.Infof("User registered: %s", user.Email)
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}

	token, err := utils.GenerateToken(s.config.JWTSecret, user.ID, s.config.JWTTTL)
	if err != nil {
		return nil, err
	}

	s.log.Infof("User logged in: %s", user.Email)
	return &AuthResult{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to the id of an existing user
func (s *Service) Authenticate(ctx context.Context, token string) (int64, error) {
	userID, err := utils.ParseToken(s.config.JWTSecret, token)
	if err != nil {
		return 0, models.WrapError(models.KindUnauthorized, err, "Not authorized, token failed")
	}
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, models.WrapError(models.KindUnauthorized, err, "Not authorized, user not found")
		}
		return 0, err
	}
	return userID, nil
}

// GetUser returns the user's profile
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.repo.FindUserByID(ctx, userID)
}

// UpdateProfile edits names, currency and avatar
func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
		if err := utils.ValidateLength("First name", user.FirstName, 1, 50); err != nil {
			return nil, err
		}
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
		if err := utils.ValidateLength("Last name", user.LastName, 1, 50); err != nil {
			return nil, err
		}
	}
	if in.Currency != nil {
		user.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
		if err := utils.ValidateCurrency(user.Currency); err != nil {
			return nil, err
		}
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}

	if err := s.repo.UpdateUserProfile(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", userID).Info("Profile updated")
	return user, nil
}

// ConvertBalance expresses the user's balance in the target currency
func (s *Service) ConvertBalance(ctx context.Context, userID int64, target string) (*ConvertedBalance, error) {
	if s.rates == nil {
		return nil, fmt.Errorf("exchange rates are not configured")
	}
	target = strings.ToUpper(strings.TrimSpace(target))
	if err := utils.ValidateCurrency(target); err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rates, err := s.rates.GetRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rates: %w", err)
	}
	converted, err := cbr.Convert(rates, user.TotalBalance, user.Currency, target)
	if err != nil {
		return nil, models.WrapError(models.KindValidation, err, "Conversion from %s to %s is not available", user.Currency, target)
	}

	return &ConvertedBalance{
		Currency:         user.Currency,
		Balance:          user.TotalBalance,
		TargetCurrency:   target,
		ConvertedBalance: converted,
	}, nil
}
