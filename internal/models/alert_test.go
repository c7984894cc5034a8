package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseAlertType(t *testing.T) {
	got, err := ParseAlertType("Outbreak")
	if err != nil || got != AlertTypeOutbreak {
		t.Errorf("expected outbreak, got %q (%v)", got, err)
	}

	_, err = ParseAlertType("rumor")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "alert_type" {
		t.Errorf("expected field alert_type, got %s", verr.Field)
	}
}

func TestParseSeverity(t *testing.T) {
	if _, err := ParseSeverity("critical"); err != nil {
		t.Errorf("expected critical to parse, got %v", err)
	}
	if _, err := ParseSeverity("apocalyptic"); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestAlert_EffectiveStatus(t *testing.T) {
	now := time.Now()
	a := &Alert{Status: AlertStatusActive, ExpiresAt: now.Add(time.Hour)}

	if got := a.EffectiveStatus(now); got != AlertStatusActive {
		t.Errorf("expected active before expiry, got %s", got)
	}
	if got := a.EffectiveStatus(now.Add(2 * time.Hour)); got != AlertStatusExpired {
		t.Errorf("expected expired after expiry, got %s", got)
	}

	a.Status = AlertStatusRevoked
	if got := a.EffectiveStatus(now); got != AlertStatusRevoked {
		t.Errorf("expected revoked to win over projection, got %s", got)
	}
}

func TestOutbreakAlertID(t *testing.T) {
	at := time.Date(2026, time.August, 29, 10, 30, 0, 0, time.UTC)
	id := OutbreakAlertID("Dengue", "Delhi", at)
	if id != "outbreak_dengue_Delhi_20260829_103000" {
		t.Errorf("unexpected id %q", id)
	}
}
