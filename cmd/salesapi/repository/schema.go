package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/helcity/homesales/common/db"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates the reservation tables if they do not exist yet.
// Wired in as the bootstrap DB init hook.
func ApplySchema(database *db.DB) error {
	if _, err := database.Exec(context.Background(), schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}
