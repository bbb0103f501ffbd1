package mood

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const contextObservations = 5

// MoodContextString renders the recent mood history as a text block for
// injection into a consumer's prompt context: the 5 most recent observations
// with relative ages, the bucketed distress label with numeric level and
// multiplier, how long distress has persisted when a primary cause exists,
// and escalation guidance keyed to the distress level. Returns the empty
// string when there is no mood history.
func (t *Tracker) MoodContextString() string {
	obs := t.observations()
	if len(obs) == 0 {
		return ""
	}
	now := t.now()
	report := t.DistressLevel()

	var b strings.Builder
	b.WriteString("Recent mood observations:\n")
	n := contextObservations
	if len(obs) < n {
		n = len(obs)
	}
	for _, o := range obs[:n] {
		fmt.Fprintf(&b, "- %s (intensity %s/10, %s ago): %s\n",
			o.Mood, strconv.FormatFloat(o.Intensity, 'g', -1, 64), relativeAge(now.Sub(o.Timestamp)), o.Reason)
	}

	fmt.Fprintf(&b, "\nDistress: %s (level %.1f/10, admonishment multiplier %.1fx)\n",
		distressLabel(report.Level), report.Level, multiplier(report.Level))
	if report.PrimaryCause != "" {
		fmt.Fprintf(&b, "Distress has persisted for %s: %s\n", relativeAge(report.Duration), report.PrimaryCause)
	}

	switch {
	case report.Level >= 7:
		b.WriteString("\nDistress is critical. Stop and address the cause before anything else; keep responses short, direct, and corrective.")
	case report.Level >= 5:
		b.WriteString("\nDistress is high. Acknowledge the cause explicitly and correct course before continuing.")
	case report.Level >= 3:
		b.WriteString("\nDistress is elevated. Watch for repeat triggers and adjust behavior before it escalates.")
	}
	return b.String()
}

// distressLabel buckets a numeric level into the escalation bands used by
// the guidance text.
func distressLabel(level float64) string {
	switch {
	case level >= 7:
		return "CRITICAL"
	case level >= 5:
		return "HIGH"
	case level >= 3:
		return "MODERATE"
	default:
		return "LOW"
	}
}

// relativeAge formats an age using its largest nonzero unit: "Nh Mm" above
// an hour, "Nm" above a minute, otherwise "Ns".
func relativeAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", int(d/time.Hour), int(d%time.Hour/time.Minute))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
}
