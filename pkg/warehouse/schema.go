package warehouse

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"

	pgxstore "github.com/Kelvi11/smart-warehouse/pkg/pgx"
)

// Table names, one per resource.
const (
	TableInventoryItems = "inventory_items"
	TableOrders         = "orders"
	TableOrderItems     = "order_items"
	TableTrucks         = "trucks"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the warehouse tables in schema when they do not exist.
// It is idempotent.
func Migrate(ctx context.Context, conn pgxstore.Conn, schema string) error {
	if schema == "" {
		schema = "public"
	}
	ident := pgx.Identifier{schema}.Sanitize()

	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
			return fmt.Errorf("create schema %s: %w", schema, err)
		}
		if _, err := tx.Exec(ctx, "SET LOCAL search_path TO "+ident); err != nil {
			return fmt.Errorf("set search_path: %w", err)
		}
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		return nil
	})
}
