// Package activity turns timestamps into dashboard-friendly age and
// elapsed-time displays.
package activity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Color classes for age display. The dashboard maps these to CSS classes.
const (
	ColorGreen   = "green"   // active recently
	ColorYellow  = "yellow"  // quiet for a while
	ColorRed     = "red"     // likely stuck
	ColorUnknown = "unknown" // no timestamp available
)

// Thresholds for age coloring.
const (
	freshThreshold = 5 * time.Minute
	staleThreshold = 30 * time.Minute
)

// Info describes how old an activity timestamp is and how to render it.
type Info struct {
	FormattedAge string // e.g. "3 minutes ago"
	ColorClass   string // ColorGreen, ColorYellow, ColorRed, ColorUnknown
	Age          time.Duration
}

// Calculate returns display info for the given activity timestamp.
// A zero timestamp yields ColorUnknown.
func Calculate(t time.Time) Info {
	return CalculateAt(t, time.Now())
}

// CalculateAt is Calculate with an explicit "now" for testability.
func CalculateAt(t, now time.Time) Info {
	if t.IsZero() {
		return Info{FormattedAge: "unknown", ColorClass: ColorUnknown}
	}

	age := now.Sub(t)
	if age < 0 {
		age = 0
	}

	info := Info{
		FormattedAge: humanize.RelTime(t, now, "ago", "from now"),
		Age:          age,
	}
	switch {
	case age < freshThreshold:
		info.ColorClass = ColorGreen
	case age < staleThreshold:
		info.ColorClass = ColorYellow
	default:
		info.ColorClass = ColorRed
	}
	return info
}

// Elapsed holds a zero-padded H/M/S breakdown of time since session creation.
type Elapsed struct {
	Hours     string `json:"hours"`   // zero-padded, e.g. "01"
	Minutes   string `json:"minutes"` // zero-padded
	Seconds   string `json:"seconds"` // zero-padded
	ShowHours bool   `json:"show_hours"`
}

// ElapsedSince computes the elapsed time between a creation timestamp and
// now. The timestamp may be RFC 3339 or a bare unix-seconds value as
// produced by tmux #{session_created}.
//
// A future timestamp (clock skew) clamps to the zero duration. An empty or
// unparseable timestamp returns nil: callers must treat that as "elapsed
// time unknown", never as zero.
func ElapsedSince(createdAt string, now time.Time) *Elapsed {
	if createdAt == "" {
		return nil
	}

	created, err := parseTimestamp(createdAt)
	if err != nil {
		return nil
	}

	d := now.Sub(created)
	if d < 0 {
		d = 0
	}

	hours := int(d / time.Hour)
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60

	return &Elapsed{
		Hours:     fmt.Sprintf("%02d", hours),
		Minutes:   fmt.Sprintf("%02d", minutes),
		Seconds:   fmt.Sprintf("%02d", seconds),
		ShowHours: hours > 0,
	}
}

// parseTimestamp accepts RFC 3339 or unix seconds.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil && unix > 0 {
		return time.Unix(unix, 0), nil
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
