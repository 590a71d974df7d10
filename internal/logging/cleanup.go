package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/rishirajshrivastava/Lynk-Backend/internal/models"
	"gorm.io/gorm"
)

// CleanupSystemLogs deletes system_logs older than retention. It is run by
// the scheduler once a day.
func CleanupSystemLogs(ctx context.Context, db *gorm.DB, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
