package scheduler

import (
	"fmt"
	"strings"
	"time"

	"dromeport/internal/models"
)

// defaultClockTime is used when a fixed-time schedule carries an
// unparseable time of day.
const defaultClockTime = "08:00"

// Schedule is the recurrence part of a sync entry, detached from storage so
// next-due computation stays a pure function of its inputs.
type Schedule struct {
	Type          string
	IntervalValue int
	IntervalUnit  string
	ClockTime     string // HH:MM, fixed-time schedules only
	Days          string // daily, weekdays, weekends, or a weekday name
}

// FromEntry extracts the schedule of a stored sync entry.
func FromEntry(e *models.SyncPlaylist) Schedule {
	return Schedule{
		Type:          e.ScheduleType,
		IntervalValue: e.IntervalValue,
		IntervalUnit:  e.IntervalUnit,
		ClockTime:     e.CronTime,
		Days:          e.CronDays,
	}
}

// NextDue computes the next run time strictly from the schedule and now.
// For interval schedules now is the end of the run being recorded. A
// fixed-time schedule whose candidate coincides exactly with now is due
// immediately.
func (s Schedule) NextDue(now time.Time) time.Time {
	if s.Type == models.ScheduleCron {
		return s.nextClock(now)
	}
	return now.Add(s.interval())
}

func (s Schedule) interval() time.Duration {
	value := s.IntervalValue
	if value <= 0 {
		value = 1
	}
	switch s.IntervalUnit {
	case models.UnitMinutes:
		return time.Duration(value) * time.Minute
	case models.UnitDays:
		return time.Duration(value) * 24 * time.Hour
	default:
		return time.Duration(value) * time.Hour
	}
}

func (s Schedule) nextClock(now time.Time) time.Time {
	hour, minute := parseClockTime(s.ClockTime)

	for offset := 0; offset <= 7; offset++ {
		day := now.AddDate(0, 0, offset)
		candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
		if candidate.Before(now) {
			continue
		}
		if dayMatches(candidate.Weekday(), s.Days) {
			return candidate
		}
	}
	// Unreachable for any day selector that matches at least one weekday.
	return now.AddDate(0, 0, 1)
}

func parseClockTime(value string) (hour, minute int) {
	parsed := value
	if parsed == "" {
		parsed = defaultClockTime
	}
	if _, err := fmt.Sscanf(parsed, "%d:%d", &hour, &minute); err != nil ||
		hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		hour, minute = 8, 0
	}
	return hour, minute
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func dayMatches(day time.Weekday, selector string) bool {
	switch sel := strings.ToLower(strings.TrimSpace(selector)); sel {
	case models.DaysWeekdays:
		return day >= time.Monday && day <= time.Friday
	case models.DaysWeekends:
		return day == time.Saturday || day == time.Sunday
	case models.DaysDaily, "":
		return true
	default:
		if want, ok := weekdayNames[sel]; ok {
			return day == want
		}
		// Unknown selector behaves as daily.
		return true
	}
}
