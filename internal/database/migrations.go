package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-api/internal/models"
	"gorm.io/gorm"
)

type index struct {
	model   interface{}
	name    string
	columns string
}

// AddIndexes adds the lookup indexes that AutoMigrate does not derive from
// struct tags.
func AddIndexes(db *gorm.DB, log logrus.FieldLogger) error {
	indexes := []index{
		// Task indexes for filtering and sorting
		{&models.Task{}, "idx_tasks_project_id", "project_id"},
		{&models.Task{}, "idx_tasks_owner_id", "owner_id"},
		{&models.Task{}, "idx_tasks_status", "status"},
		{&models.Task{}, "idx_tasks_due_date", "due_date"},

		// Membership lookups by resource
		{&models.Membership{}, "idx_memberships_resource", "resource_type, resource_id"},

		// Task assignment lookups by user
		{&models.TaskAssignment{}, "idx_task_assignments_user_id", "user_id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithField("index", idx.name).Info("Created index")
	}

	return nil
}

// MigrateDatabase runs table migrations followed by index creation
func MigrateDatabase(db *gorm.DB, log logrus.FieldLogger) error {
	if err := Migrate(db, log); err != nil {
		return err
	}

	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
