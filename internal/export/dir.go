package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"menuopt/internal/database"
	"menuopt/internal/loader"
	"menuopt/internal/models"
)

// WriteDir writes the menu CSV, the transcript CSV and a SQLite snapshot of
// both into dir. A nil transcript still produces the header-only file.
func WriteDir(dir string, rows []models.MenuRow, messages []models.ChatMessage, cols loader.Columns) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	err := writeFile(filepath.Join(dir, MenuFileName), func(w io.Writer) error {
		return WriteCSV(w, rows, cols)
	})
	if err != nil {
		return err
	}

	err = writeFile(filepath.Join(dir, TranscriptFileName), func(w io.Writer) error {
		return WriteTranscript(w, messages)
	})
	if err != nil {
		return err
	}

	return database.WriteSnapshotFile(filepath.Join(dir, database.SnapshotFileName), rows, messages)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	return nil
}
