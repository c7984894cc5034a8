package repository

import (
	"context"
	"errors"

	"github.com/healthwatch/go-health-alerts/internal/models"
)

var (
	ErrDuplicateAlert       = errors.New("alert already exists")
	ErrAlertNotFound        = errors.New("alert not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

type AlertRepository interface {
	SaveAlert(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	// ActiveAlerts returns alerts with status=active whose expiry has not
	// passed, newest first. An empty region matches all regions.
	ActiveAlerts(ctx context.Context, region string) ([]models.Alert, error)
	HasActiveAlert(ctx context.Context, region, disease string) (bool, error)
	RevokeAlert(ctx context.Context, id string) error
}

type SubscriptionRepository interface {
	// UpsertSubscription atomically creates or updates the subscription
	// keyed on (phone number, region), reactivating it if needed.
	UpsertSubscription(ctx context.Context, s *models.Subscription) error
	Subscribers(ctx context.Context, region string, alertType models.AlertType) ([]models.Subscription, error)
	DeactivateSubscription(ctx context.Context, phoneNumber, region string) error
}

type DeliveryRepository interface {
	RecordDelivery(ctx context.Context, r *models.DeliveryRecord) error
	DeliveriesByAlert(ctx context.Context, alertID string) ([]models.DeliveryRecord, error)
}

// Store is the full persistence surface shared by the monitor, the
// dispatcher and the API layer.
type Store interface {
	AlertRepository
	SubscriptionRepository
	DeliveryRepository
}
