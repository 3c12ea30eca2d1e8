// internal/domain/notification/cycle.go
package notification

import (
	"time"

	"sheet_reminder_bot/internal/domain/calendar"
)

// Evaluation is the per-cycle context every row is classified against.
// The batch gates are decided once, before the first row.
type Evaluation struct {
	CycleID     string
	Now         time.Time // in the reference zone
	Today       calendar.Date
	Weekend     bool
	OverdueOpen bool
	StaleOpen   bool
}
