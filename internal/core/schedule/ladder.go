package schedule

import (
	"errors"
	"fmt"
)

// DefaultLadder is the day-offset sequence used when no ladder is configured.
var DefaultLadder = Ladder{1, 3, 7, 14, 30, 60}

// Ladder is a strictly ascending sequence of day offsets. Index i is the wait
// after the i-th consecutive successful review.
type Ladder []int

// NewLadder validates days and returns them as a Ladder.
func NewLadder(days []int) (Ladder, error) {
	if len(days) == 0 {
		return nil, errors.New("ladder must have at least one rung")
	}
	for i, d := range days {
		if d <= 0 {
			return nil, fmt.Errorf("rung %d: offset must be positive, got %d", i, d)
		}
		if i > 0 && d <= days[i-1] {
			return nil, fmt.Errorf("rung %d: offsets must be strictly ascending (%d after %d)", i, d, days[i-1])
		}
	}
	l := make(Ladder, len(days))
	copy(l, days)
	return l, nil
}

// Max is the index of the last (longest) rung.
func (l Ladder) Max() int { return len(l) - 1 }

// Clamp pins index into [0, Max].
func (l Ladder) Clamp(index int) int {
	switch {
	case index < 0:
		return 0
	case index > l.Max():
		return l.Max()
	default:
		return index
	}
}

// Offset returns the day offset for index after clamping.
func (l Ladder) Offset(index int) int {
	return l[l.Clamp(index)]
}

// Next returns the review date for index counted from ref. Indices past the
// last rung saturate at the longest offset.
func (l Ladder) Next(ref Date, index int) Date {
	return ref.AddDays(l.Offset(index))
}
