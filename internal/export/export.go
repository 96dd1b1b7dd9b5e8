package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"menuopt/internal/loader"
	"menuopt/internal/models"
)

// Default download names
const (
	MenuFileName       = "optimized_menu_data.csv"
	TranscriptFileName = "menu_with_chat.csv"
)

// WriteCSV dumps the full table with a header row and no index column.
// The output reads back with loader.ReadCSV and SkipRows 0.
func WriteCSV(w io.Writer, rows []models.MenuRow, cols loader.Columns) error {
	if cols == (loader.Columns{}) {
		cols = loader.DefaultColumns()
	}
	cw := csv.NewWriter(w)
	header := []string{cols.Dish, cols.Ingredients, cols.WeeklyOrders, cols.WasteCost, cols.ProfitMargin, cols.KeepRemove, cols.SuggestedDish}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Dish,
			row.Ingredients,
			row.WeeklyOrders.String(),
			row.WasteCost.String(),
			row.ProfitMargin.String(),
			row.KeepRemove,
			row.SuggestedDish,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %q: %w", row.Dish, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTranscript dumps a session's question and answer log
func WriteTranscript(w io.Writer, messages []models.ChatMessage) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Turn", "Speaker", "Message", "Time"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, msg := range messages {
		record := []string{
			strconv.Itoa(i + 1),
			msg.Speaker(),
			msg.Text,
			msg.SentAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write turn %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
