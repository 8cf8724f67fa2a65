package models

import "time"

// Schedule kinds.
const (
	ScheduleInterval = "interval"
	ScheduleCron     = "cron" // fixed time-of-day on selected days
)

// Interval units.
const (
	UnitMinutes = "minutes"
	UnitHours   = "hours"
	UnitDays    = "days"
)

// Day selectors for fixed-time schedules. Anything else is a single weekday
// name: mon, tue, wed, thu, fri, sat, sun.
const (
	DaysDaily    = "daily"
	DaysWeekdays = "weekdays"
	DaysWeekends = "weekends"
)

// Last-run outcomes.
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SyncPlaylist is a persisted recurring watch of a playlist or album. The
// embedded config is a snapshot taken when the entry was created.
type SyncPlaylist struct {
	ID             string         `gorm:"column:id;primaryKey;size:36" json:"id"`
	URL            string         `gorm:"column:url;size:2048" json:"url"`
	Name           string         `gorm:"column:name;size:255" json:"name"`
	Thumb          string         `gorm:"column:thumb;size:2048" json:"thumb,omitempty"`
	Provider       string         `gorm:"column:provider;size:50" json:"provider"`
	Config         DownloadConfig `gorm:"column:config;serializer:json" json:"config"`
	PlaylistFolder string         `gorm:"column:playlist_folder;size:255" json:"playlist_folder"`

	ScheduleType  string `gorm:"column:schedule_type;size:20" json:"schedule_type"`
	IntervalValue int    `gorm:"column:interval_value;default:24" json:"interval_value"`
	IntervalUnit  string `gorm:"column:interval_unit;size:10" json:"interval_unit"`
	CronTime      string `gorm:"column:cron_time;size:5" json:"cron_time"`
	CronDays      string `gorm:"column:cron_days;size:10" json:"cron_days"`
	Enabled       bool   `gorm:"column:enabled;default:true" json:"enabled"`

	LastSyncedAt   *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
	LastSyncStatus string     `gorm:"column:last_sync_status;size:10" json:"last_sync_status,omitempty"`
	LastSyncLog    string     `gorm:"column:last_sync_log;type:text" json:"last_sync_log,omitempty"`
	NextRunAt      *time.Time `gorm:"column:next_run_at" json:"next_run_at"` // null while disabled

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (SyncPlaylist) TableName() string {
	return "sync_playlists"
}
