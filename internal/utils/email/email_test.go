package email

import (
	"io"
	"strings"
	"testing"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func newTestSender() *Sender {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewSender(&config.Config{SenderEmail: "no-reply@example.com"}, logger)
}

func TestWelcomeMessage(t *testing.T) {
	e := newTestSender().WelcomeMessage("ann@example.com", "Ann")
	if e.From != "no-reply@example.com" || len(e.To) != 1 || e.To[0] != "ann@example.com" {
		t.Fatalf("unexpected envelope %v -> %v", e.From, e.To)
	}
	if !strings.Contains(string(e.Text), "Dear Ann") {
		t.Fatalf("body missing greeting: %s", e.Text)
	}
}

func TestDriftMessage(t *testing.T) {
	drifts := []models.BalanceDrift{
		{UserID: 7, Stored: decimal.RequireFromString("10"), Computed: decimal.RequireFromString("12.5"), Repaired: true},
	}
	e := newTestSender().DriftMessage("ops@example.com", drifts)
	if !strings.Contains(e.Subject, "1 user(s)") {
		t.Fatalf("subject = %q", e.Subject)
	}
	body := string(e.Text)
	if !strings.Contains(body, "user 7: stored 10.00, computed 12.50 (repaired)") {
		t.Fatalf("body = %s", body)
	}
}
