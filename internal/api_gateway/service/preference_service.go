package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/voucher-sync-ledger/internal/domain/alert"
)

const (
	DefaultAlertLimit = 50
	MaxAlertLimit     = 200
)

var (
	ErrMissingSubscriberID = errors.New("subscriber id is required")
	ErrNegativeThreshold   = errors.New("large amount threshold must not be negative")
)

type PreferenceServiceImpl struct {
	preferenceRepo alert.PreferenceRepository
	alertRepo      alert.Repository
	logger         *slog.Logger
}

func NewPreferenceService(logger *slog.Logger, preferenceRepo alert.PreferenceRepository, alertRepo alert.Repository) PreferenceService {
	return &PreferenceServiceImpl{
		preferenceRepo: preferenceRepo,
		alertRepo:      alertRepo,
		logger:         logger,
	}
}

func (s *PreferenceServiceImpl) GetPreference(ctx context.Context, subscriberID string) (*alert.Preference, error) {
	return s.preferenceRepo.Get(ctx, subscriberID)
}

func (s *PreferenceServiceImpl) SavePreference(ctx context.Context, pref *alert.Preference) error {
	pref.SubscriberID = strings.TrimSpace(pref.SubscriberID)
	if pref.SubscriberID == "" {
		return ErrMissingSubscriberID
	}
	if pref.LargeAmountThreshold != nil && pref.LargeAmountThreshold.IsNegative() {
		return ErrNegativeThreshold
	}

	if err := s.preferenceRepo.Upsert(ctx, pref); err != nil {
		return err
	}
	s.logger.Info("Subscriber preferences saved",
		"subscriber_id", pref.SubscriberID,
		"active", pref.Active,
	)
	return nil
}

func (s *PreferenceServiceImpl) ListAlerts(ctx context.Context, subscriberID string, limit int) ([]*alert.Alert, error) {
	if limit <= 0 {
		limit = DefaultAlertLimit
	}
	return s.alertRepo.ListBySubscriber(ctx, subscriberID, min(limit, MaxAlertLimit))
}
