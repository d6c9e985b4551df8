//go:build integration

package repositories_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mystic-aac/accountcenter/internal/database"
	"github.com/mystic-aac/accountcenter/internal/models"
	"github.com/mystic-aac/accountcenter/internal/repositories"
	"github.com/mystic-aac/accountcenter/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupDatabase starts postgres in a container and applies the embedded migrations
func setupDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("accountcenter"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, database.Migrate(ctx, pool, logger))

	return pool
}

func TestIntegration_AccountPlayerSessionFlow(t *testing.T) {
	pool := setupDatabase(t)
	ctx := context.Background()

	accounts := repositories.NewAccountRepository(pool)
	players := repositories.NewPlayerRepository(pool)
	sessions := repositories.NewSessionRepository(pool)
	news := repositories.NewNewsRepository(pool)
	events := repositories.NewLoginEventRepository(pool)

	hash, err := auth.HashPassword("Secret1!")
	require.NoError(t, err)

	alice, err := accounts.Create(ctx, &models.Account{
		Username: "alice", Email: "alice@example.com", PasswordHash: hash, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, alice.Role)

	_, err = accounts.Create(ctx, &models.Account{
		Username: "alice", Email: "other@example.com", PasswordHash: hash, IsActive: true,
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	usernameTaken, emailTaken, err := accounts.ExistsByUsernameOrEmail(ctx, "alice", "ALICE@example.com")
	require.NoError(t, err)
	assert.True(t, usernameTaken)
	assert.True(t, emailTaken)

	// Characters and leaderboard
	knight, err := players.Create(ctx, models.NewCharacter(alice.ID, "Sir Alice", models.VocationKnight, models.SexFemale, 0))
	require.NoError(t, err)
	assert.Equal(t, 136, knight.LookType)

	_, err = players.Create(ctx, models.NewCharacter(alice.ID, "Sir Alice", models.VocationDruid, models.SexMale, 0))
	assert.ErrorIs(t, err, models.ErrNameTaken)

	_, err = players.Create(ctx, models.NewCharacter(alice.ID, "Druid Alice", models.VocationDruid, models.SexMale, 0))
	require.NoError(t, err)

	voc := models.VocationKnight
	list, total, err := players.List(ctx, models.PlayerFilter{Vocation: &voc, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Sir Alice", list[0].Name)

	avatar := "alice.png"
	updated, err := players.Update(ctx, knight.ID, alice.ID, false, models.PlayerUpdate{Avatar: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "alice.png", updated.Avatar)
	assert.Equal(t, "Sir Alice", updated.Name)

	_, err = players.Update(ctx, knight.ID, alice.ID+100, false, models.PlayerUpdate{Avatar: &avatar})
	assert.ErrorIs(t, err, models.ErrForbidden)

	// Sessions
	user := alice.SessionUser()
	now := time.Now()
	rec := &models.SessionRecord{ID: "6f1c2a7e-4d3b-4b8e-9a55-0c8d2e7f1a23", User: &user, ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, sessions.Save(ctx, rec))

	loaded, err := sessions.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, loaded.User.ID)

	active, err := sessions.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, active)

	expired := &models.SessionRecord{ID: "0b7a9d2c-1e3f-4a5b-8c6d-7e8f9a0b1c2d", ExpiresAt: now.Add(-time.Minute), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, sessions.Save(ctx, expired))
	_, err = sessions.Get(ctx, expired.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	removed, err := sessions.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// News
	item, err := news.Create(ctx, &models.News{Title: "Launch", Summary: "Live", Content: "Body", AuthorID: &alice.ID})
	require.NoError(t, err)
	assert.Equal(t, "alice", item.AuthorName)

	latest, err := news.Latest(ctx, 5)
	require.NoError(t, err)
	require.Len(t, latest, 1)

	// Login events
	require.NoError(t, events.Record(ctx, &models.LoginEvent{Username: "alice", IPAddress: "127.0.0.1", Success: true}))
	recent, err := events.RecentByUsername(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	purged, err := events.DeleteOlderThan(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
