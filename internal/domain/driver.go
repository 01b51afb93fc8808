package domain

// DriverStatus represents the current online status of a driver.
type DriverStatus string

const (
	DriverStatusOnline  DriverStatus = "ONLINE"
	DriverStatusOffline DriverStatus = "OFFLINE"
	DriverStatusOnTrip  DriverStatus = "ON_TRIP"
)

// Driver represents a driver in the system. Eligible is owned exclusively by
// the suspension engine and the driver's own online toggle; all writes go
// through a single compare-and-set path so a suspension can force it false
// without racing the driver's own toggle.
type Driver struct {
	ID       string
	Name     string
	Phone    string
	Status   DriverStatus
	Eligible bool // eligible to accept rides
}
