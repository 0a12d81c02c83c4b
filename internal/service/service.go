package service

import (
	"context"
	"time"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Notifier delivers account emails. A nil Notifier disables them.
type Notifier interface {
	SendWelcome(to, firstName string) error
	SendBalanceDrift(to string, drifts []models.BalanceDrift) error
}

// RateSource provides exchange rates keyed by currency code, all quoted in one base currency
type RateSource interface {
	GetRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Service handles business logic
type Service struct {
	repo     repository.Store
	log      *logrus.Logger
	config   *config.Config
	notifier Notifier
	rates    RateSource
	now      func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithNotifier enables emails
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRateSource enables balance conversion
func WithRateSource(r RateSource) Option {
	return func(s *Service) { s.rates = r }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService initializes a new service
func NewService(repo repository.Store, log *logrus.Logger, cfg *config.Config, opts ...Option) *Service {
	s := &Service{repo: repo, log: log, config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the store
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
