//go:build integration

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/maheshrc27/postpipe/internal/models"
)

func setupHistoryDB(t *testing.T) *sql.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("postpipe"),
		postgres.WithUsername("postpipe"),
		postgres.WithPassword("postpipe"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	return db
}

func TestPostingHistoryCreateAndList(t *testing.T) {
	db := setupHistoryDB(t)
	repo := NewPostingHistoryRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.PostingHistory{Platform: "facebook", PostID: "p1", Success: true, Result: "https://www.facebook.com/1"})
	require.NoError(t, err)
	id, err := repo.Create(ctx, &models.PostingHistory{Platform: "twitter", PostID: "p2", Success: false, Result: "Error: boom"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	all, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	tw, err := repo.List(ctx, "twitter", 10)
	require.NoError(t, err)
	require.Len(t, tw, 1)
	assert.Equal(t, "p2", tw[0].PostID)
	assert.False(t, tw[0].Success)

	// migrations are idempotent
	_, _, err = RunMigrations(db)
	require.NoError(t, err)
}
