package detection

import (
	"strings"
	"time"

	"github.com/healthwatch/go-health-alerts/internal/models"
)

type RiskLevel string

const (
	RiskInsufficientData RiskLevel = "insufficient_data"
	RiskLow              RiskLevel = "low"
	RiskMedium           RiskLevel = "medium"
	RiskHigh             RiskLevel = "high"
	RiskCritical         RiskLevel = "critical"
)

const (
	FactorHighCaseCount = "high_case_count"
	FactorRapidGrowth   = "rapid_growth"
	FactorSeasonalPeak  = "seasonal_peak"
)

// Profile is the static threshold configuration for one disease.
type Profile struct {
	WeeklyCaseThreshold int
	GrowthRateThreshold float64
	PeakMonths          []time.Month
}

func (p Profile) inPeak(m time.Month) bool {
	for _, pm := range p.PeakMonths {
		if pm == m {
			return true
		}
	}
	return false
}

// Assessment is the engine's classification of a disease/region trend.
type Assessment struct {
	Disease         string
	Region          string
	Level           RiskLevel
	RecentCases     int
	GrowthRate      float64
	Factors         []string
	Recommendations []string
}

// Engine maps a case-count time series to an outbreak risk assessment.
// It holds only static configuration; Assess is pure and safe for
// concurrent use.
type Engine struct {
	profiles map[string]Profile
	fallback Profile
}

func NewEngine() *Engine {
	return &Engine{
		profiles: defaultProfiles,
		fallback: Profile{WeeklyCaseThreshold: 20, GrowthRateThreshold: 0.25},
	}
}

func (e *Engine) profile(disease string) Profile {
	if p, ok := e.profiles[strings.ToLower(disease)]; ok {
		return p
	}
	return e.fallback
}

// Assess evaluates series against the disease's threshold profile using
// the current wall-clock month for seasonality.
func (e *Engine) Assess(disease, region string, series []models.CasePoint) Assessment {
	return e.AssessAt(disease, region, series, time.Now())
}

// AssessAt is the deterministic core: identical inputs always produce an
// identical assessment.
func (e *Engine) AssessAt(disease, region string, series []models.CasePoint, at time.Time) Assessment {
	a := Assessment{Disease: disease, Region: region, Level: RiskInsufficientData}
	if len(series) < 7 {
		return a
	}

	recent := sumCases(series[len(series)-7:])
	previous := 0
	if len(series) >= 14 {
		previous = sumCases(series[len(series)-14 : len(series)-7])
	}

	growth := 0.0
	if previous > 0 {
		growth = float64(recent-previous) / float64(previous)
	}

	p := e.profile(disease)

	level := RiskLow
	var factors []string

	if recent >= p.WeeklyCaseThreshold {
		factors = append(factors, FactorHighCaseCount)
		level = RiskMedium
	}
	if growth >= p.GrowthRateThreshold {
		factors = append(factors, FactorRapidGrowth)
		switch level {
		case RiskMedium:
			level = RiskHigh
		case RiskLow:
			level = RiskMedium
		}
	}
	if p.inPeak(at.Month()) {
		// Counts toward the critical override but never escalates alone.
		factors = append(factors, FactorSeasonalPeak)
	}

	if len(factors) >= 2 && float64(recent) >= 1.5*float64(p.WeeklyCaseThreshold) {
		level = RiskCritical
	}

	a.Level = level
	a.RecentCases = recent
	a.GrowthRate = growth
	a.Factors = factors
	a.Recommendations = recommendationsFor(disease, level)
	return a
}

// Severity maps a risk level onto the alert severity scale.
func (l RiskLevel) Severity() models.AlertSeverity {
	switch l {
	case RiskCritical:
		return models.SeverityCritical
	case RiskHigh:
		return models.SeverityHigh
	case RiskMedium:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func sumCases(points []models.CasePoint) int {
	total := 0
	for _, pt := range points {
		total += pt.Cases
	}
	return total
}
