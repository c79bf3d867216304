package postgres

// Тесты PostgreSQL-хранилища статусов:
// — unit: encode/decode page_token;
// — интеграция: реальный PostgreSQL через testcontainers-go (postgres:16-alpine), миграции из ./migrations.
//
// Запуск интеграционных тестов:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/threads-service/internal/config"
	"github.com/pribylovaa/threads-service/internal/models"
	"github.com/pribylovaa/threads-service/internal/storage"
)

// repoRootFromThisFile — корень репозитория относительно файла тестов.
func repoRootFromThisFile() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(repoRootFromThisFile(), "migrations", name))
	require.NoError(t, err)
	return string(b)
}

// startPostgres поднимает PostgreSQL, применяет миграции и возвращает хранилище.
func startPostgres(t *testing.T) *Storage {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, readMigration(t, "1_init_statuses.up.sql"))
	pool.Close()
	require.NoError(t, err)

	st, err := New(ctx, &config.Config{
		DB:     config.DBConfig{Driver: config.DriverPostgres, URL: dsn},
		Limits: config.LimitsConfig{Default: 2, Max: 100, MaxDepth: 2},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	return st
}

func newStatus(parent string) models.Status {
	return models.Status{InReplyToID: parent, AccountID: uuid.New(), Username: "bob", Content: "hi"}
}

func TestPageToken_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	id := uuid.New()

	gotT, gotID, err := decodePageToken(encodePageToken(now, id))
	require.NoError(t, err)
	require.True(t, gotT.Equal(now))
	require.Equal(t, id, gotID)

	for _, bad := range []string{"%%%", "bm9waXBl", "MTIzfG5vdC1hLXV1aWQ", "YWJjfDY1MWQ"} {
		_, _, err := decodePageToken(bad)
		require.Error(t, err, bad)
	}
}

func TestIntegration_Statuses(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	root, err := st.CreateStatus(ctx, newStatus(""))
	require.NoError(t, err)
	require.Zero(t, root.Depth)
	require.Empty(t, root.InReplyToID)

	var replies []string
	for i := 0; i < 3; i++ {
		r, err := st.CreateStatus(ctx, newStatus(root.ID))
		require.NoError(t, err)
		require.EqualValues(t, 1, r.Depth)
		replies = append(replies, r.ID)
		time.Sleep(2 * time.Millisecond)
	}

	got, err := st.StatusByID(ctx, root.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, got.RepliesCount)

	// Пагинация ответов: Default = 2.
	page, err := st.ListReplies(ctx, root.ID, models.ListParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextPageToken)

	page2, err := st.ListReplies(ctx, root.ID, models.ListParams{PageToken: page.NextPageToken})
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	require.Empty(t, page2.NextPageToken)
	require.Equal(t, replies, []string{page.Items[0].ID, page.Items[1].ID, page2.Items[0].ID})

	_, err = st.ListReplies(ctx, root.ID, models.ListParams{PageToken: "%%%"})
	require.ErrorIs(t, err, storage.ErrInvalidCursor)

	// Глубина: MaxDepth = 2.
	d2, err := st.CreateStatus(ctx, newStatus(replies[0]))
	require.NoError(t, err)
	_, err = st.CreateStatus(ctx, newStatus(d2.ID))
	require.ErrorIs(t, err, storage.ErrMaxDepthExceeded)

	_, err = st.CreateStatus(ctx, newStatus(uuid.NewString()))
	require.ErrorIs(t, err, storage.ErrParentNotFound)
	_, err = st.CreateStatus(ctx, newStatus("bad"))
	require.ErrorIs(t, err, storage.ErrParentNotFound)

	// Мягкое удаление.
	require.NoError(t, st.DeleteStatus(ctx, d2.ID))
	del, err := st.StatusByID(ctx, d2.ID)
	require.NoError(t, err)
	require.True(t, del.IsDeleted)
	require.Empty(t, del.Content)

	require.ErrorIs(t, st.DeleteStatus(ctx, uuid.NewString()), storage.ErrNotFound)
	_, err = st.StatusByID(ctx, "bad")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
