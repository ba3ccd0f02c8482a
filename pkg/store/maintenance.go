package store

import (
	"fmt"
	"time"

	"github.com/abhishekgusain07/studioanimations.app/models"
)

// LostJobMessage is the error recorded on animations reclaimed by the stale
// sweep.
const LostJobMessage = "animation job was lost; please submit the request again"

// SweepStale fails animations that have been sitting in pending or
// processing longer than threshold. This is the safety net for process
// crashes mid-render: an accepted job must always reach a terminal state
// from the client's perspective.
func (s *Store) SweepStale(threshold time.Duration) (int64, error) {
	cutoff := time.Now().Add(-threshold)
	res := s.db.Model(&models.Animation{}).
		Where("status IN ? AND updated_at < ?",
			[]models.AnimationStatus{models.StatusPending, models.StatusProcessing}, cutoff).
		Updates(map[string]any{
			"status":         models.StatusFailed,
			"success":        false,
			"status_message": LostJobMessage,
			"error_message":  LostJobMessage,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep stale animations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// HealthSummary counts animations per lifecycle bucket for the health
// endpoint.
type HealthSummary struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// Health aggregates animation state for diagnostic output.
func (s *Store) Health() (HealthSummary, error) {
	rows, err := s.db.Model(&models.Animation{}).
		Select("status, COUNT(1) AS count").
		Group("status").
		Rows()
	if err != nil {
		return HealthSummary{}, fmt.Errorf("animation stats: %w", err)
	}
	defer rows.Close()

	var health HealthSummary
	for rows.Next() {
		var status models.AnimationStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, err
		}
		health.Total += count
		switch status {
		case models.StatusPending:
			health.Pending += count
		case models.StatusProcessing:
			health.Processing += count
		case models.StatusCompleted:
			health.Completed += count
		case models.StatusFailed:
			health.Failed += count
		}
	}
	return health, rows.Err()
}
