package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableStores  = "stores"
	tableRecords = "product_price"
)

var (
	storeColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "store_name", Type: field.TypeString, Size: 200},
		{Name: "channel", Type: field.TypeString, Size: 100, Nullable: true},
		{Name: "branch", Type: field.TypeString, Size: 100, Nullable: true},
		{Name: "manager", Type: field.TypeString, Size: 100, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// StoresTable holds the schema information for the "stores" table.
	StoresTable = &schema.Table{
		Name:       tableStores,
		Columns:    storeColumns,
		PrimaryKey: []*schema.Column{storeColumns[0]},
		Indexes: []*schema.Index{
			{Name: "idx_store_name", Unique: true, Columns: []*schema.Column{storeColumns[1]}},
		},
	}

	recordColumns = []*schema.Column{
		{Name: "id", Type: field.TypeUUID},
		{Name: "product_name", Type: field.TypeString, Size: 200},
		{Name: "price", Type: field.TypeFloat64, SchemaType: map[string]string{dialect.Postgres: "numeric(10,2)"}},
		{Name: "image_path", Type: field.TypeString, Size: 500, Nullable: true},
		{Name: "confidence_score", Type: field.TypeFloat64, Nullable: true},
		{Name: "status", Type: field.TypeString, Size: 50},
		{Name: "extracted_at", Type: field.TypeTime},
		{Name: "metadata", Type: field.TypeJSON, Nullable: true},
		{Name: "store_id", Type: field.TypeUUID, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// RecordsTable holds the schema information for the "product_price" table.
	RecordsTable = &schema.Table{
		Name:       tableRecords,
		Columns:    recordColumns,
		PrimaryKey: []*schema.Column{recordColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "product_price_stores_records",
				Columns:    []*schema.Column{recordColumns[8]},
				RefColumns: []*schema.Column{storeColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{Name: "idx_product_name", Columns: []*schema.Column{recordColumns[1]}},
			{Name: "idx_extracted_at", Columns: []*schema.Column{recordColumns[6]}},
			{Name: "idx_status", Columns: []*schema.Column{recordColumns[5]}},
			{Name: "idx_store_extracted", Columns: []*schema.Column{recordColumns[8], recordColumns[6]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{StoresTable, RecordsTable}
)

func init() {
	RecordsTable.ForeignKeys[0].RefTable = StoresTable
}

// Migrate creates or updates the schema so it matches Tables.
func Migrate(ctx context.Context, db *DB) error {
	m, err := schema.NewMigrate(db.Driver())
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	db.logger.Info("database schema is up to date", "tables", len(Tables))
	return nil
}
