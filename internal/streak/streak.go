package streak

import (
	"sort"
	"time"

	"github.com/ritualhq/ritual/internal/model"
)

// DateLayout is the calendar-date format used for entry dates.
const DateLayout = "2006-01-02"

// Aggregates holds the derived streak fields for one task.
type Aggregates struct {
	CurrentStreak    int
	BestStreak       int
	TotalCompletions int
}

type dayEntry struct {
	date      time.Time
	completed bool
}

// Compute derives the streak aggregates from a task's full entry log.
// Entries may arrive in any order; they are sorted internally. All
// comparisons are on calendar dates pinned to UTC midnight, so the result
// is independent of the caller's timezone as long as `today` carries the
// caller's calendar date.
func Compute(entries []model.Entry, today time.Time) Aggregates {
	days := make([]dayEntry, 0, len(entries))
	for _, e := range entries {
		d, err := time.ParseInLocation(DateLayout, e.Date, time.UTC)
		if err != nil {
			continue
		}
		days = append(days, dayEntry{date: d, completed: e.Completed})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })

	total := 0
	for _, d := range days {
		if d.completed {
			total++
		}
	}

	return Aggregates{
		CurrentStreak:    currentStreak(days, Day(today)),
		BestStreak:       bestStreak(days),
		TotalCompletions: total,
	}
}

// currentStreak counts consecutive completed days ending at (or adjacent
// to) today. Today itself is optional: when nothing is logged for it yet
// the run is anchored on yesterday instead. A missing record for any
// earlier expected day breaks the run, as does an explicit
// completed=false record at the expected offset.
func currentStreak(asc []dayEntry, today time.Time) int {
	streak := 0
	k := 0
	for i := len(asc) - 1; i >= 0; i-- {
		e := asc[i]
		diff := daysBetween(e.date, today)
		if streak == 0 && k == 0 && diff == 1 {
			// Nothing logged for today; a still-open day never breaks
			// the run, so the scan starts expecting yesterday.
			k = 1
		}
		if diff != k || !e.completed {
			break
		}
		streak++
		k++
	}
	return streak
}

// bestStreak finds the longest run of consecutive completed days anywhere
// in history. An explicit not-completed record resets the run; a day simply
// absent from the log breaks it via the one-day adjacency check instead.
func bestStreak(asc []dayEntry) int {
	best, temp := 0, 0
	var last time.Time
	haveLast := false
	for _, e := range asc {
		if !e.completed {
			temp = 0
			haveLast = false
			continue
		}
		if haveLast && daysBetween(last, e.date) == 1 {
			temp++
		} else {
			temp = 1
		}
		if temp > best {
			best = temp
		}
		last = e.date
		haveLast = true
	}
	return best
}

// Day truncates t to its calendar date, pinned to UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns b - a in whole days. Both arguments must be UTC
// midnights, so the subtraction is an exact multiple of 24h.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
