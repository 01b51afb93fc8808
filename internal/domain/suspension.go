package domain

import "time"

// SuspensionType distinguishes time-bounded from permanent suspensions.
type SuspensionType string

const (
	SuspensionTypeTemporary SuspensionType = "TEMPORARY"
	SuspensionTypePermanent SuspensionType = "PERMANENT"
)

// SuspensionStatus represents the current status of a suspension.
type SuspensionStatus string

const (
	SuspensionStatusActive  SuspensionStatus = "ACTIVE"
	SuspensionStatusExpired SuspensionStatus = "EXPIRED"
	SuspensionStatusLifted  SuspensionStatus = "LIFTED"
)

// Suspension revokes a driver's eligibility to accept rides. A driver has at
// most one ACTIVE suspension at a time; a PERMANENT suspension supersedes a
// TEMPORARY one.
type Suspension struct {
	ID        string
	DriverID  string
	Type      SuspensionType
	Status    SuspensionStatus
	Reason    string
	StrikeIDs []string
	StartedAt time.Time
	ExpiresAt time.Time // zero for PERMANENT
}

// ExpiredAt reports whether a temporary suspension has run its course.
func (s *Suspension) ExpiredAt(now time.Time) bool {
	return s.Type == SuspensionTypeTemporary && !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}
