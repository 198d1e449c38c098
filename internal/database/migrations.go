package database

import (
	"fmt"

	"github.com/yukikurage/task-manager/internal/logging"
	"github.com/yukikurage/task-manager/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite index used for insertion-order listing.
// Single-column indexes come from the model tags.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		name    string
		columns string
	}{
		{"idx_tasks_created_at_id", "created_at, id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(&models.Task{}, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON tasks (%s)", idx.name, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logging.Logger.WithField("index", idx.name).Info("created index")
	}

	return nil
}
