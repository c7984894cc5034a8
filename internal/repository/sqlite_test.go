package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/healthwatch/go-health-alerts/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return db
}

func testAlert(id, region, disease string, expiresIn time.Duration) *models.Alert {
	now := time.Now()
	return &models.Alert{
		ID:                 id,
		Type:               models.AlertTypeOutbreak,
		Severity:           models.SeverityHigh,
		Region:             region,
		Disease:            disease,
		Message:            "Outbreak detected",
		Recommendations:    []string{"Eliminate stagnant water sources", "Use mosquito repellent and nets", "Seek medical attention for high fever"},
		CreatedAt:          now,
		ExpiresAt:          now.Add(expiresIn),
		AffectedPopulation: 3600,
		Sources:            []string{"Regional Health Department", "Disease Surveillance System"},
		Status:             models.AlertStatusActive,
	}
}

func TestSQLiteDB_SaveAndGetAlert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	alert := testAlert("outbreak_dengue_Delhi_20260829_100000", "Delhi", "Dengue", 7*24*time.Hour)

	if err := db.SaveAlert(ctx, alert); err != nil {
		t.Fatalf("SaveAlert failed: %v", err)
	}

	got, err := db.GetAlert(ctx, alert.ID)
	if err != nil {
		t.Fatalf("GetAlert failed: %v", err)
	}
	if got.Disease != "Dengue" {
		t.Errorf("expected disease 'Dengue', got '%s'", got.Disease)
	}
	if got.Severity != models.SeverityHigh {
		t.Errorf("expected severity high, got '%s'", got.Severity)
	}
	// List columns are JSON-serialized; ordering must survive the round trip.
	if !reflect.DeepEqual(got.Recommendations, alert.Recommendations) {
		t.Errorf("recommendations mismatch: %v vs %v", got.Recommendations, alert.Recommendations)
	}
	if !reflect.DeepEqual(got.Sources, alert.Sources) {
		t.Errorf("sources mismatch: %v vs %v", got.Sources, alert.Sources)
	}
	if !got.ExpiresAt.After(got.CreatedAt) {
		t.Error("expected expires_at after created_at")
	}
}

func TestSQLiteDB_GetAlert_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetAlert(context.Background(), "nonexistent")
	if !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("expected ErrAlertNotFound, got %v", err)
	}
}

func TestSQLiteDB_SaveAlert_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	alert := testAlert("dup_test", "Delhi", "Dengue", time.Hour)

	if err := db.SaveAlert(ctx, alert); err != nil {
		t.Fatalf("first SaveAlert failed: %v", err)
	}

	err := db.SaveAlert(ctx, alert)
	if !errors.Is(err, ErrDuplicateAlert) {
		t.Errorf("expected ErrDuplicateAlert, got %v", err)
	}
}

func TestSQLiteDB_ActiveAlerts_FiltersExpiredAndRevoked(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	active := testAlert("active1", "Delhi", "Dengue", 24*time.Hour)
	expired := testAlert("expired1", "Delhi", "Malaria", -time.Hour)
	revoked := testAlert("revoked1", "Delhi", "Cholera", 24*time.Hour)
	otherRegion := testAlert("active2", "Mumbai", "Dengue", 24*time.Hour)

	for _, a := range []*models.Alert{active, expired, revoked, otherRegion} {
		if err := db.SaveAlert(ctx, a); err != nil {
			t.Fatalf("SaveAlert(%s) failed: %v", a.ID, err)
		}
	}
	if err := db.RevokeAlert(ctx, "revoked1"); err != nil {
		t.Fatalf("RevokeAlert failed: %v", err)
	}

	got, err := db.ActiveAlerts(ctx, "Delhi")
	if err != nil {
		t.Fatalf("ActiveAlerts failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "active1" {
		t.Errorf("expected only active1 for Delhi, got %+v", got)
	}

	// Expired and revoked rows remain in storage.
	if _, err := db.GetAlert(ctx, "expired1"); err != nil {
		t.Errorf("expired alert should still be readable: %v", err)
	}

	all, err := db.ActiveAlerts(ctx, "")
	if err != nil {
		t.Fatalf("ActiveAlerts failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 active alerts across regions, got %d", len(all))
	}
}

func TestSQLiteDB_HasActiveAlert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	exists, err := db.HasActiveAlert(ctx, "Delhi", "dengue")
	if err != nil {
		t.Fatalf("HasActiveAlert failed: %v", err)
	}
	if exists {
		t.Error("expected no active alert before save")
	}

	if err := db.SaveAlert(ctx, testAlert("has1", "Delhi", "Dengue", time.Hour)); err != nil {
		t.Fatalf("SaveAlert failed: %v", err)
	}

	// Matching is case-insensitive: the monitor keys pairs in lowercase
	// while stored alerts carry display names.
	exists, err = db.HasActiveAlert(ctx, "Delhi", "dengue")
	if err != nil {
		t.Fatalf("HasActiveAlert failed: %v", err)
	}
	if !exists {
		t.Error("expected active alert after save")
	}

	exists, err = db.HasActiveAlert(ctx, "Mumbai", "dengue")
	if err != nil {
		t.Fatalf("HasActiveAlert failed: %v", err)
	}
	if exists {
		t.Error("expected no active alert in other region")
	}
}

func TestSQLiteDB_RevokeAlert_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.RevokeAlert(context.Background(), "nonexistent")
	if !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("expected ErrAlertNotFound, got %v", err)
	}
}

func testSubscription(phone, region string, types ...models.AlertType) *models.Subscription {
	return &models.Subscription{
		PhoneNumber:  phone,
		Region:       region,
		AlertTypes:   types,
		Language:     "english",
		Channel:      models.ChannelSMS,
		Active:       true,
		SubscribedAt: time.Now(),
	}
}

func TestSQLiteDB_UpsertSubscription_NoDuplicates(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	if err := db.UpsertSubscription(ctx, testSubscription("+911234567890", "Delhi", models.AlertTypeOutbreak)); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Re-subscribing the same (phone, region) must update in place.
	updated := testSubscription("+911234567890", "Delhi", models.AlertTypeOutbreak, models.AlertTypeVaccination)
	updated.Channel = models.ChannelWhatsApp
	if err := db.UpsertSubscription(ctx, updated); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	subs, err := db.Subscribers(ctx, "Delhi", models.AlertTypeOutbreak)
	if err != nil {
		t.Fatalf("Subscribers failed: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", len(subs))
	}
	if len(subs[0].AlertTypes) != 2 {
		t.Errorf("expected updated type set, got %v", subs[0].AlertTypes)
	}
	if subs[0].Channel != models.ChannelWhatsApp {
		t.Errorf("expected updated channel whatsapp, got %s", subs[0].Channel)
	}
}

func TestSQLiteDB_Subscribers_FiltersByType(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	db.UpsertSubscription(ctx, testSubscription("+911111111111", "Delhi", models.AlertTypeOutbreak))
	db.UpsertSubscription(ctx, testSubscription("+912222222222", "Delhi", models.AlertTypeVaccination))
	db.UpsertSubscription(ctx, testSubscription("+913333333333", "Mumbai", models.AlertTypeOutbreak))

	subs, err := db.Subscribers(ctx, "Delhi", models.AlertTypeOutbreak)
	if err != nil {
		t.Fatalf("Subscribers failed: %v", err)
	}
	if len(subs) != 1 || subs[0].PhoneNumber != "+911111111111" {
		t.Errorf("expected only the Delhi outbreak subscriber, got %+v", subs)
	}
}

func TestSQLiteDB_DeactivateSubscription(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	if err := db.UpsertSubscription(ctx, testSubscription("+911234567890", "Delhi", models.AlertTypeOutbreak)); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := db.DeactivateSubscription(ctx, "+911234567890", "Delhi"); err != nil {
		t.Fatalf("DeactivateSubscription failed: %v", err)
	}

	subs, err := db.Subscribers(ctx, "Delhi", models.AlertTypeOutbreak)
	if err != nil {
		t.Fatalf("Subscribers failed: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected no active subscribers after unsubscribe, got %d", len(subs))
	}

	// History is preserved, so re-subscribing reactivates the same row.
	if err := db.UpsertSubscription(ctx, testSubscription("+911234567890", "Delhi", models.AlertTypeOutbreak)); err != nil {
		t.Fatalf("re-subscribe failed: %v", err)
	}
	subs, _ = db.Subscribers(ctx, "Delhi", models.AlertTypeOutbreak)
	if len(subs) != 1 {
		t.Errorf("expected reactivated subscription, got %d", len(subs))
	}

	err = db.DeactivateSubscription(ctx, "+919999999999", "Delhi")
	if !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestSQLiteDB_Deliveries(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	now := time.Now()

	records := []*models.DeliveryRecord{
		{ID: "d1", AlertID: "alert1", PhoneNumber: "+911111111111", Channel: models.ChannelSMS, Status: models.DeliveryStatusSent, DeliveredAt: now},
		{ID: "d2", AlertID: "alert1", PhoneNumber: "+912222222222", Channel: models.ChannelWhatsApp, Status: models.DeliveryStatusFailed, Error: "gateway rejected message", DeliveredAt: now.Add(time.Second)},
		{ID: "d3", AlertID: "alert2", PhoneNumber: "+911111111111", Channel: models.ChannelSMS, Status: models.DeliveryStatusSent, DeliveredAt: now},
	}
	for _, r := range records {
		if err := db.RecordDelivery(ctx, r); err != nil {
			t.Fatalf("RecordDelivery(%s) failed: %v", r.ID, err)
		}
	}

	got, err := db.DeliveriesByAlert(ctx, "alert1")
	if err != nil {
		t.Fatalf("DeliveriesByAlert failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records for alert1, got %d", len(got))
	}
	if got[0].ID != "d1" || got[1].ID != "d2" {
		t.Errorf("expected records ordered by delivery time, got %s, %s", got[0].ID, got[1].ID)
	}
	if got[1].Status != models.DeliveryStatusFailed || got[1].Error == "" {
		t.Errorf("expected failed record with error text, got %+v", got[1])
	}
}
