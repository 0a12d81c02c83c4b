package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Dan9191/finance-tracker/internal/metrics"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reconcile compares every user's stored balance with the sum of their
// transactions. With repair set, drifted balances are overwritten by the sum.
func (s *Service) Reconcile(ctx context.Context, repair bool) ([]models.BalanceDrift, error) {
	ids, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	drifts := []models.BalanceDrift{}
	for _, id := range ids {
		var drift *models.BalanceDrift
		err := s.repo.WithLedgerTx(ctx, id, func(tx repository.LedgerTx) error {
			stored, err := tx.Balance(ctx, id)
			if err != nil {
				return err
			}
			computed, err := tx.SumContributions(ctx, id)
			if err != nil {
				return err
			}
			if stored.Equal(computed) {
				return nil
			}
			drift = &models.BalanceDrift{UserID: id, Stored: stored, Computed: computed}
			if repair {
				if err := tx.SetBalance(ctx, id, computed); err != nil {
					return err
				}
				drift.Repaired = true
			}
			return nil
		})
		if err != nil {
			return drifts, fmt.Errorf("failed to reconcile user %d: %w", id, err)
		}
		if drift == nil {
			continue
		}

		metrics.BalanceDrifts.WithLabelValues(strconv.FormatBool(drift.Repaired)).Inc()
		s.log.WithFields(logrus.Fields{
			"user_id":  drift.UserID,
			"stored":   drift.Stored.StringFixed(2),
			"computed": drift.Computed.StringFixed(2),
			"repaired": drift.Repaired,
		}).Warn("Balance drift detected")
		drifts = append(drifts, *drift)
	}

	if len(drifts) > 0 && s.notifier != nil && s.config.AlertEmail != "" {
		if err := s.notifier.SendBalanceDrift(s.config.AlertEmail, drifts); err != nil {
			s.log.WithError(err).Error("Balance drift alert not sent")
		}
	}

	s.log.WithFields(logrus.Fields{"users": len(ids), "drifts": len(drifts)}).Info("Reconciliation finished")
	return drifts, nil
}

// StartReconciler runs Reconcile on a cron schedule until the returned cron is stopped
func (s *Service) StartReconciler(ctx context.Context, schedule string, repair bool) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.Reconcile(ctx, repair); err != nil {
			s.log.WithError(err).Error("Reconciliation failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	c.Start()
	s.log.Infof("Reconciler scheduled: %s (repair=%t)", schedule, repair)
	return c, nil
}
