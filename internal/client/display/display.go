// Package display formats events for the terminal feed: durations,
// timestamps, locations, and full event lines with their risk badges.
// Formatting is presentation only and has no effect on ordering.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/safewatch/internal/client/risk"
	"github.com/dmitrijs2005/safewatch/internal/events"
)

// MissedLabel is shown for calls with zero duration.
const MissedLabel = "Missed"

// timeLayout approximates the viewer's locale date/time convention.
const timeLayout = "1/2/2006, 3:04:05 PM"

// Duration renders a call duration in seconds as m:ss with the seconds
// zero-padded, e.g. 125 -> "2:05". Zero means the call was missed.
func Duration(seconds int) string {
	if seconds == 0 {
		return MissedLabel
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Time renders a timestamp in the viewer's local time.
func Time(t time.Time) string {
	return t.Local().Format(timeLayout)
}

// LocationLine renders "City, Country", or an empty string when the event
// carries no location. Absence produces no placeholder.
func LocationLine(loc *events.Location) string {
	if loc == nil {
		return ""
	}
	return fmt.Sprintf("%s, %s", loc.City, loc.Country)
}

// OtpLine renders one OTP event as a single feed line.
func OtpLine(e events.OtpEvent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s [%s]", e.Sender(), risk.ClassifyOtp(e))
	fmt.Fprintf(&b, " code=%s", e.Code)
	fmt.Fprintf(&b, " %s", Time(e.ReceivedAt))
	if e.Purpose != nil && *e.Purpose != "" {
		fmt.Fprintf(&b, " purpose=%s", *e.Purpose)
	}
	if loc := LocationLine(e.Location); loc != "" {
		fmt.Fprintf(&b, " (%s)", loc)
	}

	return b.String()
}

// CallLine renders one call event as a single feed line.
func CallLine(e events.CallEvent) string {
	var b strings.Builder

	badge := risk.ClassifyCall(e)
	fmt.Fprintf(&b, "%s [%s]", e.Caller(), badge.Label)
	if badge.Blocked {
		b.WriteString(" [blocked]")
	}
	fmt.Fprintf(&b, " %s", Duration(e.Duration))
	fmt.Fprintf(&b, " %s", Time(e.CallTime))
	if loc := LocationLine(e.Location); loc != "" {
		fmt.Fprintf(&b, " (%s)", loc)
	}

	return b.String()
}
