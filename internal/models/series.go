package models

import "time"

// CasePoint is one day of reported case counts for a (disease, region) pair.
type CasePoint struct {
	Date  time.Time
	Cases int
}
