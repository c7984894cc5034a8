package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/healthwatch/go-health-alerts/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			alert_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			region TEXT NOT NULL,
			disease TEXT NOT NULL,
			message TEXT NOT NULL,
			recommendations TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			affected_population INTEGER,
			sources TEXT,
			status TEXT NOT NULL DEFAULT 'active'
		);

		CREATE TABLE IF NOT EXISTS subscriptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			phone_number TEXT NOT NULL,
			region TEXT NOT NULL,
			alert_types TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT 'english',
			preferred_channel TEXT NOT NULL DEFAULT 'sms',
			subscribed_at DATETIME NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			UNIQUE (phone_number, region)
		);

		CREATE TABLE IF NOT EXISTS deliveries (
			id TEXT PRIMARY KEY,
			alert_id TEXT NOT NULL,
			phone_number TEXT NOT NULL,
			channel TEXT NOT NULL,
			delivery_status TEXT NOT NULL,
			error TEXT,
			delivered_at DATETIME NOT NULL,
			FOREIGN KEY (alert_id) REFERENCES alerts(id)
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_region ON alerts(region);
		CREATE INDEX IF NOT EXISTS idx_alerts_status_expiry ON alerts(status, expires_at);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_region ON subscriptions(region);
		CREATE INDEX IF NOT EXISTS idx_deliveries_alert_id ON deliveries(alert_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) SaveAlert(ctx context.Context, a *models.Alert) error {
	recs, err := json.Marshal(a.Recommendations)
	if err != nil {
		return fmt.Errorf("error encoding recommendations: %w", err)
	}
	sources, err := json.Marshal(a.Sources)
	if err != nil {
		return fmt.Errorf("error encoding sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (
			id, alert_type, severity, region, disease, message,
			recommendations, created_at, expires_at, affected_population, sources, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Type), string(a.Severity), a.Region, a.Disease, a.Message,
		string(recs), a.CreatedAt.UTC(), a.ExpiresAt.UTC(), a.AffectedPopulation,
		string(sources), string(a.Status),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("alert %s: %w", a.ID, ErrDuplicateAlert)
		}
		return fmt.Errorf("error inserting alert: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, alert_type, severity, region, disease, message,
		       recommendations, created_at, expires_at, affected_population, sources, status
		FROM alerts WHERE id = ?`, id)

	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("alert %s: %w", id, ErrAlertNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading alert: %w", err)
	}
	return a, nil
}

func (s *SQLiteDB) ActiveAlerts(ctx context.Context, region string) ([]models.Alert, error) {
	query := `
		SELECT id, alert_type, severity, region, disease, message,
		       recommendations, created_at, expires_at, affected_population, sources, status
		FROM alerts
		WHERE status = 'active' AND expires_at > ?`
	args := []any{time.Now().UTC()}

	if region != "" {
		query += " AND region = ?"
		args = append(args, region)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (s *SQLiteDB) HasActiveAlert(ctx context.Context, region, disease string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE status = 'active' AND expires_at > ? AND region = ? AND LOWER(disease) = LOWER(?)
		)`, time.Now().UTC(), region, disease).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking active alert: %w", err)
	}
	return exists, nil
}

func (s *SQLiteDB) RevokeAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET status = 'revoked' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error revoking alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert %s: %w", id, ErrAlertNotFound)
	}
	return nil
}

func (s *SQLiteDB) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	types, err := json.Marshal(sub.AlertTypes)
	if err != nil {
		return fmt.Errorf("error encoding alert types: %w", err)
	}

	// Single-statement upsert so concurrent subscribe calls for the same
	// (phone, region) cannot race into duplicate rows.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (phone_number, region, alert_types, language, preferred_channel, subscribed_at, active)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT (phone_number, region) DO UPDATE SET
			alert_types = excluded.alert_types,
			language = excluded.language,
			preferred_channel = excluded.preferred_channel,
			active = 1`,
		sub.PhoneNumber, sub.Region, string(types), sub.Language,
		string(sub.Channel), sub.SubscribedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error upserting subscription: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Subscribers(ctx context.Context, region string, alertType models.AlertType) ([]models.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT phone_number, region, alert_types, language, preferred_channel, subscribed_at, active
		FROM subscriptions
		WHERE region = ? AND active = 1
		ORDER BY subscribed_at, phone_number`, region)
	if err != nil {
		return nil, fmt.Errorf("error querying subscribers: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning subscription: %w", err)
		}
		if sub.WantsType(alertType) {
			subs = append(subs, *sub)
		}
	}
	return subs, rows.Err()
}

func (s *SQLiteDB) DeactivateSubscription(ctx context.Context, phoneNumber, region string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions SET active = 0
		WHERE phone_number = ? AND region = ? AND active = 1`,
		phoneNumber, region)
	if err != nil {
		return fmt.Errorf("error deactivating subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subscription for %s in %s: %w", phoneNumber, region, ErrSubscriptionNotFound)
	}
	return nil
}

func (s *SQLiteDB) RecordDelivery(ctx context.Context, r *models.DeliveryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (id, alert_id, phone_number, channel, delivery_status, error, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AlertID, r.PhoneNumber, string(r.Channel), string(r.Status), r.Error, r.DeliveredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("error inserting delivery record: %w", err)
	}
	return nil
}

func (s *SQLiteDB) DeliveriesByAlert(ctx context.Context, alertID string) ([]models.DeliveryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, alert_id, phone_number, channel, delivery_status, error, delivered_at
		FROM deliveries
		WHERE alert_id = ?
		ORDER BY delivered_at, id`, alertID)
	if err != nil {
		return nil, fmt.Errorf("error querying deliveries: %w", err)
	}
	defer rows.Close()

	var records []models.DeliveryRecord
	for rows.Next() {
		var r models.DeliveryRecord
		var channel, status string
		var errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.AlertID, &r.PhoneNumber, &channel, &status, &errMsg, &r.DeliveredAt); err != nil {
			return nil, fmt.Errorf("error scanning delivery record: %w", err)
		}
		r.Channel = models.Channel(channel)
		r.Status = models.DeliveryStatus(status)
		r.Error = errMsg.String
		records = append(records, r)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	var alertType, severity, status, recs string
	var sources sql.NullString

	err := row.Scan(&a.ID, &alertType, &severity, &a.Region, &a.Disease, &a.Message,
		&recs, &a.CreatedAt, &a.ExpiresAt, &a.AffectedPopulation, &sources, &status)
	if err != nil {
		return nil, err
	}

	a.Type = models.AlertType(alertType)
	a.Severity = models.AlertSeverity(severity)
	a.Status = models.AlertStatus(status)
	if err := json.Unmarshal([]byte(recs), &a.Recommendations); err != nil {
		return nil, fmt.Errorf("error decoding recommendations: %w", err)
	}
	if sources.Valid && sources.String != "" {
		if err := json.Unmarshal([]byte(sources.String), &a.Sources); err != nil {
			return nil, fmt.Errorf("error decoding sources: %w", err)
		}
	}
	return &a, nil
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	var types, channel string

	err := row.Scan(&sub.PhoneNumber, &sub.Region, &types, &sub.Language, &channel, &sub.SubscribedAt, &sub.Active)
	if err != nil {
		return nil, err
	}

	sub.Channel = models.Channel(channel)
	if err := json.Unmarshal([]byte(types), &sub.AlertTypes); err != nil {
		return nil, fmt.Errorf("error decoding alert types: %w", err)
	}
	return &sub, nil
}
