package calendar

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // hosts running the bot from a scratch image have no zoneinfo
)

// DefaultZone is the reference zone the sheet owners work in.
const DefaultZone = "America/Los_Angeles"

// LoadZone resolves an IANA zone name; an empty name selects DefaultZone.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", name, err)
	}
	return loc, nil
}
