package models

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
Model generation usage:

Set GENERATE_MODELS=true and start the binary. The schema is migrated, a column
drift report is printed for every table, and typed query helpers are written
to ./generated using gorm/gen.

Drift report example:

	table=comments missing=[legacy_flag] msg="columns not mapped by model"
	table=posts msg="all columns mapped"
*/

// All returns every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Classification{},
		&Tag{},
		&Post{},
		&Comment{},
		&StoragePreference{},
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// GenerateModels migrates the schema, reports column drift and generates query helpers.
func GenerateModels(db *gorm.DB) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	migrateDB := db.Session(&gorm.Session{
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
		Logger:                 db.Logger.LogMode(logger.Info),
	})

	log.Info().Msg("Migrating models...")
	if err := Migrate(migrateDB); err != nil {
		return err
	}
	log.Info().Msg("Database migration completed successfully")

	if _, err := ColumnDriftReport(db); err != nil {
		return err
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(All()...)
	g.Execute()

	log.Info().Msg("Model generation complete")
	return nil
}

// ColumnDriftReport lists, per table, the database columns that no model field maps to.
func ColumnDriftReport(db *gorm.DB) (map[string][]string, error) {
	report := make(map[string][]string)

	for _, model := range All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		table := stmt.Schema.Table

		if !db.Migrator().HasTable(model) {
			log.Warn().Str("table", table).Msg("table does not exist yet")
			continue
		}

		columnTypes, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return nil, fmt.Errorf("column types for %s: %w", table, err)
		}

		mapped := make(map[string]bool, len(stmt.Schema.DBNames))
		for _, name := range stmt.Schema.DBNames {
			mapped[name] = true
		}

		var missing []string
		for _, ct := range columnTypes {
			if !mapped[ct.Name()] {
				missing = append(missing, ct.Name())
			}
		}
		sort.Strings(missing)

		if len(missing) > 0 {
			log.Warn().Str("table", table).Strs("missing", missing).Msg("columns not mapped by model")
			report[table] = missing
		} else {
			log.Info().Str("table", table).Msg("all columns mapped")
		}
	}

	return report, nil
}
