package sim

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// MaxStoredEvents bounds the narration log a snapshot keeps; older entries
// are dropped at save time.
const MaxStoredEvents = 100

type eventLog struct {
	events []Event
}

func (l *eventLog) add(now int64, severity Severity, format string, args ...any) {
	l.events = append(l.events, Event{
		ID:        uuid.NewString(),
		Timestamp: now,
		Message:   fmt.Sprintf(format, args...),
		Type:      severity,
	})
}

// TruncateEvents keeps the newest MaxStoredEvents entries.
func TruncateEvents(events []Event) []Event {
	if len(events) <= MaxStoredEvents {
		return events
	}
	return events[len(events)-MaxStoredEvents:]
}

// FormatMoney renders an amount the way the game UI shows rubles:
// thousand groups separated by spaces, ₽ suffix.
func FormatMoney(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, d)
	}
	if neg {
		return "-" + string(out) + " ₽"
	}
	return string(out) + " ₽"
}
