package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dromeport/internal/models"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("bad time literal %q: %v", value, err)
	}
	return ts
}

func TestNextDue_IntervalUnits(t *testing.T) {
	now := at(t, "2026-03-02 10:00") // Monday

	cases := []struct {
		name  string
		value int
		unit  string
		want  time.Time
	}{
		{"six hours", 6, models.UnitHours, at(t, "2026-03-02 16:00")},
		{"thirty minutes", 30, models.UnitMinutes, at(t, "2026-03-02 10:30")},
		{"two days", 2, models.UnitDays, at(t, "2026-03-04 10:00")},
		{"zero value defaults to one", 0, models.UnitHours, at(t, "2026-03-02 11:00")},
		{"unknown unit counts hours", 3, "fortnights", at(t, "2026-03-02 13:00")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Schedule{Type: models.ScheduleInterval, IntervalValue: tc.value, IntervalUnit: tc.unit}
			assert.Equal(t, tc.want, s.NextDue(now))
		})
	}
}

func TestNextDue_FixedTimeSameDay(t *testing.T) {
	now := at(t, "2026-03-02 07:30") // Monday
	s := Schedule{Type: models.ScheduleCron, ClockTime: "08:00", Days: models.DaysDaily}

	assert.Equal(t, at(t, "2026-03-02 08:00"), s.NextDue(now))
}

func TestNextDue_FixedTimeTieIsDueNow(t *testing.T) {
	now := at(t, "2026-03-02 08:00")
	s := Schedule{Type: models.ScheduleCron, ClockTime: "08:00", Days: models.DaysDaily}

	assert.Equal(t, now, s.NextDue(now))
}

func TestNextDue_FixedTimePastRollsToNextDay(t *testing.T) {
	now := at(t, "2026-03-02 08:01")
	s := Schedule{Type: models.ScheduleCron, ClockTime: "08:00", Days: models.DaysDaily}

	assert.Equal(t, at(t, "2026-03-03 08:00"), s.NextDue(now))
}

func TestNextDue_WeekdaysFromSaturday(t *testing.T) {
	now := at(t, "2026-03-07 09:00") // Saturday
	s := Schedule{Type: models.ScheduleCron, ClockTime: "08:00", Days: models.DaysWeekdays}

	// Monday morning is the next weekday slot.
	assert.Equal(t, at(t, "2026-03-09 08:00"), s.NextDue(now))
}

func TestNextDue_WeekendsFromMonday(t *testing.T) {
	now := at(t, "2026-03-02 12:00") // Monday
	s := Schedule{Type: models.ScheduleCron, ClockTime: "10:00", Days: models.DaysWeekends}

	assert.Equal(t, at(t, "2026-03-07 10:00"), s.NextDue(now)) // Saturday
}

func TestNextDue_SingleWeekdayRollsFullWeek(t *testing.T) {
	// Wednesday just after the slot: the next Wednesday is seven days out.
	now := at(t, "2026-03-04 08:01")
	s := Schedule{Type: models.ScheduleCron, ClockTime: "08:00", Days: "wed"}

	assert.Equal(t, at(t, "2026-03-11 08:00"), s.NextDue(now))
}

func TestNextDue_InvalidClockTimeFallsBack(t *testing.T) {
	now := at(t, "2026-03-02 06:00")
	for _, clock := range []string{"", "not-a-time", "25:00", "12:70"} {
		s := Schedule{Type: models.ScheduleCron, ClockTime: clock, Days: models.DaysDaily}
		assert.Equal(t, at(t, "2026-03-02 08:00"), s.NextDue(now), "clock %q", clock)
	}
}

func TestNextDue_UnknownDaySelectorBehavesAsDaily(t *testing.T) {
	now := at(t, "2026-03-02 06:00")
	s := Schedule{Type: models.ScheduleCron, ClockTime: "08:00", Days: "someday"}

	assert.Equal(t, at(t, "2026-03-02 08:00"), s.NextDue(now))
}

func TestFromEntry(t *testing.T) {
	entry := &models.SyncPlaylist{
		ScheduleType:  models.ScheduleCron,
		IntervalValue: 4,
		IntervalUnit:  models.UnitHours,
		CronTime:      "21:30",
		CronDays:      "fri",
	}
	s := FromEntry(entry)
	assert.Equal(t, models.ScheduleCron, s.Type)
	assert.Equal(t, "21:30", s.ClockTime)
	assert.Equal(t, "fri", s.Days)
}
