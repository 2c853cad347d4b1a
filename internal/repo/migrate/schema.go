// Package migrate holds the relational layout of the playcare store and
// applies it through ent's schema migrator.
package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// PatientsColumns holds the columns for the "patients" table.
	PatientsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "user_code", Type: field.TypeString, Unique: true, Size: 32},
		{Name: "therapist_id", Type: field.TypeString, Size: 64},
		{Name: "name", Type: field.TypeString},
		{Name: "email", Type: field.TypeString, Default: ""},
		{Name: "age", Type: field.TypeInt, Default: 0},
		{Name: "condition", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	// PatientsTable holds the schema information for the "patients" table.
	PatientsTable = &schema.Table{
		Name:       "patients",
		Columns:    PatientsColumns,
		PrimaryKey: []*schema.Column{PatientsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "patient_therapist_id", Columns: []*schema.Column{PatientsColumns[2]}},
		},
	}

	// SessionsColumns holds the columns for the "sessions" table.
	SessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "token", Type: field.TypeString, Unique: true, Size: 32},
		{Name: "patient_id", Type: field.TypeString, Size: 36},
		{Name: "instructor_id", Type: field.TypeString, Size: 64},
		{Name: "therapist_id", Type: field.TypeString, Size: 64, Default: ""},
		{Name: "game_data", Type: field.TypeJSON},
		{Name: "rating", Type: field.TypeInt, Nullable: true},
		{Name: "review", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "date", Type: field.TypeTime},
		{Name: "status", Type: field.TypeString, Size: 16},
		{Name: "reviewed_at", Type: field.TypeTime, Nullable: true},
		{Name: "closed_at", Type: field.TypeTime, Nullable: true},
	}
	// SessionsTable holds the schema information for the "sessions" table.
	SessionsTable = &schema.Table{
		Name:       "sessions",
		Columns:    SessionsColumns,
		PrimaryKey: []*schema.Column{SessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_patient_id_status", Columns: []*schema.Column{SessionsColumns[2], SessionsColumns[9]}},
			{Name: "session_instructor_id", Columns: []*schema.Column{SessionsColumns[3]}},
			{Name: "session_therapist_id", Columns: []*schema.Column{SessionsColumns[4]}},
		},
	}

	// GameConfigsColumns holds the columns for the "game_configs" table.
	GameConfigsColumns = []*schema.Column{
		{Name: "patient_id", Type: field.TypeString, Size: 36},
		{Name: "game_name", Type: field.TypeString, Size: 64},
		{Name: "overrides", Type: field.TypeJSON},
		{Name: "version", Type: field.TypeInt64},
		{Name: "updated_by", Type: field.TypeString, Default: ""},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// GameConfigsTable holds the schema information for the "game_configs" table.
	GameConfigsTable = &schema.Table{
		Name:       "game_configs",
		Columns:    GameConfigsColumns,
		PrimaryKey: []*schema.Column{GameConfigsColumns[0], GameConfigsColumns[1]},
	}

	// ReportsColumns holds the columns for the "reports" table.
	ReportsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "therapist_id", Type: field.TypeString, Size: 64},
		{Name: "patient_id", Type: field.TypeString, Size: 36},
		{Name: "report_data", Type: field.TypeJSON},
		{Name: "session_ids", Type: field.TypeJSON},
		{Name: "sessions", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ReportsTable holds the schema information for the "reports" table.
	ReportsTable = &schema.Table{
		Name:       "reports",
		Columns:    ReportsColumns,
		PrimaryKey: []*schema.Column{ReportsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "report_therapist_id", Columns: []*schema.Column{ReportsColumns[1]}},
		},
	}

	// ReportExportsColumns holds the columns for the "report_exports" table.
	ReportExportsColumns = []*schema.Column{
		{Name: "report_id", Type: field.TypeString, Size: 36},
		{Name: "status", Type: field.TypeString, Size: 16},
		{Name: "file_name", Type: field.TypeString},
		{Name: "object_key", Type: field.TypeString, Default: ""},
		{Name: "pages", Type: field.TypeInt, Default: 0},
		{Name: "error", Type: field.TypeString, Default: ""},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// ReportExportsTable holds the schema information for the "report_exports" table.
	ReportExportsTable = &schema.Table{
		Name:       "report_exports",
		Columns:    ReportExportsColumns,
		PrimaryKey: []*schema.Column{ReportExportsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "report_exports_reports_export",
				Columns:    []*schema.Column{ReportExportsColumns[0]},
				RefColumns: []*schema.Column{ReportsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		PatientsTable,
		SessionsTable,
		GameConfigsTable,
		ReportsTable,
		ReportExportsTable,
	}
)

func init() {
	ReportExportsTable.ForeignKeys[0].RefTable = ReportsTable
}

// Create runs the schema migration against drv.
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("ent migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
