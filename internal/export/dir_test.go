package export

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"menuopt/internal/database"
	"menuopt/internal/loader"
	"menuopt/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDirWithoutConversation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	require.NoError(t, WriteDir(dir, sampleRows(), nil, loader.Columns{}))

	menu, err := os.ReadFile(filepath.Join(dir, MenuFileName))
	require.NoError(t, err)
	assert.Contains(t, string(menu), "Soup,\"tomato, cream\",3,150.25,80,Remove,Tomato Rice")

	transcript, err := os.ReadFile(filepath.Join(dir, TranscriptFileName))
	require.NoError(t, err)
	assert.Equal(t, "Turn,Speaker,Message,Time\n", string(transcript))

	db, err := database.Open(filepath.Join(dir, database.SnapshotFileName))
	require.NoError(t, err)
	defer db.Close()
	rows, err := database.SnapshotRows(db)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestWriteDirWithConversation(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	messages := []models.ChatMessage{
		{Text: "what should I remove?", IsUser: true, SentAt: at},
		{Text: "You can consider removing: Soup", SentAt: at},
	}

	require.NoError(t, WriteDir(dir, sampleRows(), messages, loader.Columns{}))

	transcript, err := os.ReadFile(filepath.Join(dir, TranscriptFileName))
	require.NoError(t, err)
	assert.Contains(t, string(transcript), "1,user,what should I remove?,2024-03-01T12:00:00Z")
	assert.Contains(t, string(transcript), "2,assistant,You can consider removing: Soup,")
}

func TestWriteDirReportsUnwritableTarget(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "taken")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteDir(blocker, sampleRows(), nil, loader.Columns{})

	assert.Error(t, err)
}

func TestWriteFileReportsWriteError(t *testing.T) {
	path := filepath.Join(t.TempDir(), MenuFileName)

	err := writeFile(path, func(w io.Writer) error { return errors.New("disk full") })

	assert.EqualError(t, err, "disk full")
}
