package repositories

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/db"
)

// openTestDB opens a fresh in-memory SQLite database with the full schema.
// Each call gets its own database so tests never share state.
func openTestDB(t *testing.T) *db.DB {
	t.Helper()

	config := &db.Config{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	database, err := db.Connect(config)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())

	t.Cleanup(func() { database.Close() })
	return database
}
