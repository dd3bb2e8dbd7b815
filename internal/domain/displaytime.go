package domain

import "time"

// The cafe operates on Paris time; all stored instants are UTC and are
// converted only at presentation edges.
const displayZone = "Europe/Paris"

var displayLocation = mustLoadLocation(displayZone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// tzdata missing from the host; fall back to UTC rather than crash.
		return time.UTC
	}
	return loc
}

// ToDisplayTime converts a stored instant into the shop's display timezone.
func ToDisplayTime(t time.Time) time.Time {
	return t.In(displayLocation)
}
