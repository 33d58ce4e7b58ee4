package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/voucher-sync-ledger/internal/domain/alert"
	"github.com/voucher-sync-ledger/internal/domain/event"
)

// AlertDispatcher evaluates an event against every active preference and stores
// one alert per interested subscriber.
type AlertDispatcher struct {
	preferences alert.PreferenceRepository
	alerts      alert.Repository
	logger      *slog.Logger
}

func NewAlertDispatcher(
	preferences alert.PreferenceRepository,
	alerts alert.Repository,
	logger *slog.Logger,
) *AlertDispatcher {
	return &AlertDispatcher{
		preferences: preferences,
		alerts:      alerts,
		logger:      logger.With("component", "alert_dispatcher"),
	}
}

// Dispatch is safe to repeat for the same event: alerts already stored are skipped.
func (d *AlertDispatcher) Dispatch(ctx context.Context, evt *event.ChangeEvent) error {
	logger := d.logger.With(
		"event_id", evt.EventID.String(),
		"external_id", evt.ExternalID,
		"kind", evt.Kind(),
	)

	prefs, err := d.preferences.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active preferences: %w", err)
	}

	var created, duplicates int
	var errs []error
	for _, pref := range prefs {
		reasons := alert.Evaluate(pref, evt)
		if len(reasons) == 0 {
			continue
		}

		err := d.alerts.Create(ctx, alert.NewAlert(pref.SubscriberID, evt, reasons))
		switch {
		case err == nil:
			created++
		case errors.Is(err, alert.ErrDuplicateAlert{}):
			duplicates++
		default:
			logger.Error("Failed to store alert", "subscriber_id", pref.SubscriberID, "error", err)
			errs = append(errs, err)
		}
	}

	logger.Debug("Change event dispatched",
		"subscribers", len(prefs),
		"created", created,
		"duplicates", duplicates,
	)
	return errors.Join(errs...)
}
