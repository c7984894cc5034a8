package models

import (
	"fmt"
	"strings"
	"time"
)

type AlertType string

const (
	AlertTypeOutbreak      AlertType = "outbreak"
	AlertTypeVaccination   AlertType = "vaccination"
	AlertTypeWeatherHealth AlertType = "weather_health"
	AlertTypeEmergency     AlertType = "emergency"
	AlertTypePreventive    AlertType = "preventive"
)

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

type AlertStatus string

const (
	AlertStatusActive  AlertStatus = "active"
	AlertStatusExpired AlertStatus = "expired"
	AlertStatusRevoked AlertStatus = "revoked"
)

// ValidationError marks input rejected at the boundary, before it reaches
// the engine or the store.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func ParseAlertType(s string) (AlertType, error) {
	switch AlertType(strings.ToLower(s)) {
	case AlertTypeOutbreak:
		return AlertTypeOutbreak, nil
	case AlertTypeVaccination:
		return AlertTypeVaccination, nil
	case AlertTypeWeatherHealth:
		return AlertTypeWeatherHealth, nil
	case AlertTypeEmergency:
		return AlertTypeEmergency, nil
	case AlertTypePreventive:
		return AlertTypePreventive, nil
	default:
		return "", &ValidationError{Field: "alert_type", Value: s}
	}
}

func ParseSeverity(s string) (AlertSeverity, error) {
	switch AlertSeverity(strings.ToLower(s)) {
	case SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityCritical:
		return SeverityCritical, nil
	default:
		return "", &ValidationError{Field: "severity", Value: s}
	}
}

// Alert declares that a region faces an elevated health risk. Alerts are
// immutable after creation except for status on revoke.
type Alert struct {
	ID                 string
	Type               AlertType
	Severity           AlertSeverity
	Region             string
	Disease            string
	Message            string
	Recommendations    []string
	CreatedAt          time.Time
	ExpiresAt          time.Time
	AffectedPopulation int
	Sources            []string
	Status             AlertStatus
}

// ActiveAt reports whether the alert is visible as active at t. Expiry is
// a read-time projection, never a separate write.
func (a *Alert) ActiveAt(t time.Time) bool {
	return a.Status == AlertStatusActive && a.ExpiresAt.After(t)
}

// EffectiveStatus projects the stored status onto the clock: alerts past
// expiry read as expired even though their rows still say active.
func (a *Alert) EffectiveStatus(t time.Time) AlertStatus {
	if a.Status == AlertStatusActive && !a.ExpiresAt.After(t) {
		return AlertStatusExpired
	}
	return a.Status
}

// OutbreakAlertID derives a per-cycle unique identifier; the creation
// instant keeps repeated detections for the same pair distinguishable.
func OutbreakAlertID(disease, region string, at time.Time) string {
	return fmt.Sprintf("outbreak_%s_%s_%s", strings.ToLower(disease), region, at.Format("20060102_150405"))
}

func ManualAlertID(t AlertType, region string, at time.Time) string {
	return fmt.Sprintf("manual_%s_%s_%s", t, region, at.Format("20060102_150405"))
}
