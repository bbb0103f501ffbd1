package constraints

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
)

// CanonicalStateString renders the active constraints as newline-separated
// human-readable lines for injection into a consumer's textual context. Hard
// constraints are prefixed [HARD]; soft constraints are prefixed [SOFT] and
// annotated with their numeric strength when below 1.0. Returns the empty
// string when no constraints are active.
func (s *Store) CanonicalStateString() string {
	recs := s.GetAll()
	if len(recs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(recs))
	for _, rec := range recs {
		switch {
		case rec.Type == model.ConstraintHard:
			lines = append(lines, fmt.Sprintf("[HARD] %s", rec.Value))
		case rec.Strength < 1.0:
			lines = append(lines, fmt.Sprintf("[SOFT] %s (strength: %s)", rec.Value, formatStrength(rec.Strength)))
		default:
			lines = append(lines, fmt.Sprintf("[SOFT] %s", rec.Value))
		}
	}
	return strings.Join(lines, "\n")
}

func formatStrength(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
