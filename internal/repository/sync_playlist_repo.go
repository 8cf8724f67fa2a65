package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"dromeport/internal/models"
)

// ErrNotFound is returned when a sync entry does not exist.
var ErrNotFound = errors.New("sync playlist not found")

// SyncPlaylistRepository handles persisted sync entries.
type SyncPlaylistRepository struct {
	db *gorm.DB
}

func NewSyncPlaylistRepository(db *gorm.DB) *SyncPlaylistRepository {
	return &SyncPlaylistRepository{db: db}
}

func (r *SyncPlaylistRepository) FindAll() ([]models.SyncPlaylist, error) {
	var playlists []models.SyncPlaylist
	err := r.db.Order("created_at ASC").Find(&playlists).Error
	return playlists, err
}

func (r *SyncPlaylistRepository) FindByID(id string) (*models.SyncPlaylist, error) {
	var playlist models.SyncPlaylist
	err := r.db.Where("id = ?", id).First(&playlist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

func (r *SyncPlaylistRepository) Create(playlist *models.SyncPlaylist) error {
	return r.db.Create(playlist).Error
}

// UpdateFields applies a partial update; unspecified fields keep their values.
func (r *SyncPlaylistRepository) UpdateFields(id string, fields map[string]interface{}) error {
	res := r.db.Model(&models.SyncPlaylist{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SyncPlaylistRepository) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&models.SyncPlaylist{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindDue returns the enabled entries whose next run is at or before now.
func (r *SyncPlaylistRepository) FindDue(now time.Time) ([]models.SyncPlaylist, error) {
	var playlists []models.SyncPlaylist
	err := r.db.
		Where("enabled = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", true, now).
		Find(&playlists).Error
	return playlists, err
}

// RecordResult writes a run's outcome and the recomputed next-due timestamp in
// one update, so readers never observe one without the other.
func (r *SyncPlaylistRepository) RecordResult(id, status, log string, syncedAt time.Time, nextRun *time.Time) error {
	return r.UpdateFields(id, map[string]interface{}{
		"last_synced_at":   syncedAt,
		"last_sync_status": status,
		"last_sync_log":    log,
		"next_run_at":      nextRun,
	})
}
