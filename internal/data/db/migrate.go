package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/materials-registry/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureHistoryGuards installs postgres-side protection for the append-only
// history table, on top of the model hooks.
func EnsureHistoryGuards(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`
		CREATE OR REPLACE FUNCTION material_history_immutable() RETURNS trigger AS $$
		BEGIN
			RAISE EXCEPTION 'material_history is append-only';
		END;
		$$ LANGUAGE plpgsql;
	`).Error; err != nil {
		return fmt.Errorf("create material_history_immutable: %w", err)
	}
	if err := db.Exec(`DROP TRIGGER IF EXISTS trg_material_history_immutable ON material_history;`).Error; err != nil {
		return fmt.Errorf("drop trg_material_history_immutable: %w", err)
	}
	if err := db.Exec(`
		CREATE TRIGGER trg_material_history_immutable
		BEFORE UPDATE OR DELETE ON material_history
		FOR EACH ROW EXECUTE FUNCTION material_history_immutable();
	`).Error; err != nil {
		return fmt.Errorf("create trg_material_history_immutable: %w", err)
	}
	return nil
}

// EnsureMaterialIndexes adds postgres indexes gorm tags cannot express.
func EnsureMaterialIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_material_history_material_created_desc
		ON material_history (material_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_material_history_material_created_desc: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_material_lower_name
		ON material (lower(name));
	`).Error; err != nil {
		return fmt.Errorf("create idx_material_lower_name: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureMaterialIndexes(s.db); err != nil {
		s.log.Error("Material index migration failed", "error", err)
		return err
	}
	if err := EnsureHistoryGuards(s.db); err != nil {
		s.log.Error("History guard migration failed", "error", err)
		return err
	}
	return nil
}
