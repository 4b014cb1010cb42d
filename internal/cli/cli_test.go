package cli

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awatson1978/personal-health-record-sub000/internal/database"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/jobs"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/resources"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/users"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

func writeArchive(t *testing.T, files map[string]string) string {
	t.Helper()

	archivePath := filepath.Join(t.TempDir(), "facebook-export.zip")
	out, err := os.Create(archivePath)
	require.NoError(t, err)

	zw := zip.NewWriter(out)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())

	return archivePath
}

func TestImportCommand_ParseFlags(t *testing.T) {
	cmd := NewImportCommand()
	assert.Error(t, cmd.ParseFlags([]string{}))

	cmd = NewImportCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-file", "export.zip", "-user-id", "3"}))
	assert.Equal(t, "export.zip", cmd.ArchivePath)
	assert.Equal(t, uint(3), cmd.UserID)
}

func TestImportCommand_Run(t *testing.T) {
	archivePath := writeArchive(t, map[string]string{
		"posts/your_posts_1.json":            `[{"timestamp": 1700000000, "data": [{"post": "Migraine again today"}]}]`,
		"messages/inbox/alex/message_1.json": `{"messages": [{"sender_name": "Alex", "content": "feel better", "timestamp_ms": 1700000100000}]}`,
	})
	dbPath := filepath.Join(t.TempDir(), "records.db")

	cmd := NewImportCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-file", archivePath, "-db", dbPath}))
	require.NoError(t, cmd.Run())

	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	user, err := users.NewRepository(db.DB).GetUserByUsername(ctx, "local")
	require.NoError(t, err)

	list, err := jobs.NewRepository(db.DB).ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entities.JobStatusCompleted, list[0].Status)
	assert.Equal(t, "facebook-export.zip", list[0].Filename)

	summary, err := resources.NewRepository(db.DB, "test").Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary[entities.ResourceTypeClinicalImpression])
	assert.Equal(t, int64(1), summary[entities.ResourceTypeCommunication])
}

func TestImportCommand_MissingArchive(t *testing.T) {
	cmd := NewImportCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-file", filepath.Join(t.TempDir(), "missing.zip")}))
	assert.ErrorContains(t, cmd.Run(), "archive not found")
}

func TestScanCommand(t *testing.T) {
	archivePath := writeArchive(t, map[string]string{
		"friends/your_friends.json": `{"friends_v2": []}`,
		"posts/your_posts_1.json":   `[]`,
	})

	cmd := NewScanCommand()
	assert.Error(t, cmd.ParseFlags([]string{}))

	cmd = NewScanCommand()
	assert.Error(t, cmd.ParseFlags([]string{"-path", archivePath, "-budget-mb", "0"}))

	cmd = NewScanCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-path", archivePath, "-verbose"}))
	assert.NoError(t, cmd.Run())

	cmd = NewScanCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-path", filepath.Join(t.TempDir(), "missing.zip")}))
	assert.Error(t, cmd.Run())
}

func TestCreateUserCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "records.db")

	cmd := NewCreateUserCommand()
	assert.Error(t, cmd.ParseFlags([]string{"-username", "jamie"}))

	cmd = NewCreateUserCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-username", "jamie", "-email", "jamie@example.com", "-db", dbPath}))
	require.NoError(t, cmd.Run())

	// Usernames are unique.
	assert.Error(t, cmd.Run())

	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	user, err := users.NewRepository(db.DB).GetUserByUsername(context.Background(), "jamie")
	require.NoError(t, err)
	assert.Equal(t, "jamie@example.com", user.Email)
	assert.Len(t, user.Token, 64)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
}
