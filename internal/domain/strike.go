package domain

import "time"

// StrikeStatus represents the current status of a safety strike.
type StrikeStatus string

const (
	StrikeStatusActive  StrikeStatus = "ACTIVE"
	StrikeStatusExpired StrikeStatus = "EXPIRED"
	StrikeStatusRemoved StrikeStatus = "REMOVED"
)

// StrikeType categorizes the safety violation behind a strike.
type StrikeType string

const (
	StrikeTypeSpeeding        StrikeType = "SPEEDING"
	StrikeTypeHarshDriving    StrikeType = "HARSH_DRIVING"
	StrikeTypeRouteDeviation  StrikeType = "ROUTE_DEVIATION"
	StrikeTypeRiderComplaint  StrikeType = "RIDER_COMPLAINT"
	StrikeTypePolicyViolation StrikeType = "POLICY_VIOLATION"
)

// StrikeSeverity grades a strike. Severity does not change escalation
// thresholds; it is carried for admin review context.
type StrikeSeverity string

const (
	StrikeSeverityLow    StrikeSeverity = "LOW"
	StrikeSeverityMedium StrikeSeverity = "MEDIUM"
	StrikeSeverityHigh   StrikeSeverity = "HIGH"
)

// Strike is one recorded safety violation attributed to a driver.
// Strikes are never physically deleted.
type Strike struct {
	ID        string
	DriverID  string
	TripID    string
	Type      StrikeType
	Reason    string
	Severity  StrikeSeverity
	Status    StrikeStatus
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ActiveAt reports whether the strike counts toward escalation at the given
// instant.
func (s *Strike) ActiveAt(now time.Time) bool {
	return s.Status == StrikeStatusActive && s.ExpiresAt.After(now)
}

// StrikeCandidate is a detector-enqueued strike awaiting issuance through the
// strike queue. Candidates are deduplicated on (trip id, type) before a
// strike is issued.
type StrikeCandidate struct {
	DriverID   string         `json:"driver_id"`
	TripID     string         `json:"trip_id"`
	Type       StrikeType     `json:"type"`
	Reason     string         `json:"reason"`
	Severity   StrikeSeverity `json:"severity"`
	DetectedAt time.Time      `json:"detected_at"`
}
