// Package notify resolves subscribers for an alert and fans the
// notification out over the delivery transport, one recipient at a time.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/healthwatch/go-health-alerts/internal/models"
	"github.com/healthwatch/go-health-alerts/internal/repository"
)

type Dispatcher struct {
	subs       repository.SubscriptionRepository
	deliveries repository.DeliveryRepository
	transport  Transport
	log        *slog.Logger
}

// Summary aggregates the outcome of one dispatch fan-out.
type Summary struct {
	AlertID   string
	Total     int
	Succeeded int
	Failed    int
	Results   []Result
}

// Result is the outcome for one recipient.
type Result struct {
	PhoneNumber string
	Channel     models.Channel
	Err         error
}

func NewDispatcher(subs repository.SubscriptionRepository, deliveries repository.DeliveryRepository, transport Transport, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		subs:       subs,
		deliveries: deliveries,
		transport:  transport,
		log:        log,
	}
}

// Dispatch sends the alert to every active subscriber in its region whose
// subscription covers the alert type. One recipient's failure never aborts
// the rest; every attempt leaves a delivery record. The returned error
// carries delivery-record insert failures only, so callers can retry the
// audit writes without resending.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert) (*Summary, error) {
	subscribers, err := d.subs.Subscribers(ctx, alert.Region, alert.Type)
	if err != nil {
		return nil, fmt.Errorf("error resolving subscribers: %w", err)
	}

	summary := &Summary{
		AlertID: alert.ID,
		Total:   len(subscribers),
	}

	var recordErrs []error
	for _, sub := range subscribers {
		message := FormatMessage(alert, sub.Channel)

		sendErr := d.transport.Send(ctx, sub.PhoneNumber, message, sub.Channel)

		record := &models.DeliveryRecord{
			ID:          uuid.NewString(),
			AlertID:     alert.ID,
			PhoneNumber: sub.PhoneNumber,
			Channel:     sub.Channel,
			Status:      models.DeliveryStatusSent,
			DeliveredAt: time.Now(),
		}

		if sendErr != nil {
			record.Status = models.DeliveryStatusFailed
			record.Error = sendErr.Error()
			summary.Failed++
			d.log.Warn("alert delivery failed",
				"alert_id", alert.ID, "recipient", sub.PhoneNumber, "channel", sub.Channel, "error", sendErr)
		} else {
			summary.Succeeded++
			d.log.Debug("alert delivered",
				"alert_id", alert.ID, "recipient", sub.PhoneNumber, "channel", sub.Channel)
		}

		if err := d.deliveries.RecordDelivery(ctx, record); err != nil {
			recordErrs = append(recordErrs, fmt.Errorf("recording delivery to %s: %w", sub.PhoneNumber, err))
		}

		summary.Results = append(summary.Results, Result{
			PhoneNumber: sub.PhoneNumber,
			Channel:     sub.Channel,
			Err:         sendErr,
		})
	}

	return summary, errors.Join(recordErrs...)
}
