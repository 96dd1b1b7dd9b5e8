package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"menuopt/internal/loader"
	"menuopt/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []models.MenuRow {
	return []models.MenuRow{
		{Dish: "Soup", Ingredients: "tomato, cream", WeeklyOrders: models.Some(3), WasteCost: models.Some(150.25), ProfitMargin: models.Some(80), KeepRemove: "Remove", SuggestedDish: "Tomato Rice"},
		{Dish: "Salad \"Fresh\"", Ingredients: "lettuce", WeeklyOrders: models.None(), WasteCost: models.Some(0.1), ProfitMargin: models.None(), KeepRemove: "Keep", SuggestedDish: ""},
		{Dish: "Dal", Ingredients: "", WeeklyOrders: models.Some(12), WasteCost: models.None(), ProfitMargin: models.Some(1e-3)},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()[:1], loader.Columns{}))

	want := "Dish,Ingredients,Weekly Orders,Waste in cost,Dish Profit Margin ₹,Keep/Remove,Suggested Dishes\n" +
		"Soup,\"tomato, cream\",3,150.25,80,Remove,Tomato Rice\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVRoundTrip(t *testing.T) {
	rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows, loader.DefaultColumns()))

	got, err := loader.ReadCSV(&buf, loader.Options{SkipRows: 0})
	require.NoError(t, err)

	require.Len(t, got, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i].Dish, got[i].Dish)
		assert.Equal(t, rows[i].WeeklyOrders, got[i].WeeklyOrders)
		assert.Equal(t, rows[i].WasteCost, got[i].WasteCost)
		assert.Equal(t, rows[i].ProfitMargin, got[i].ProfitMargin)
		assert.Equal(t, rows[i].Ingredients, got[i].Ingredients)
	}
}

func TestWriteTranscript(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	messages := []models.ChatMessage{
		{Text: "What should I remove?", IsUser: true, SentAt: at},
		{Text: "Suggested rework dishes:\nSoup ➝ Tomato Rice", IsUser: false, SentAt: at.Add(time.Second)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTranscript(&buf, messages))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Turn", "Speaker", "Message", "Time"}, records[0])
	assert.Equal(t, []string{"1", "user", "What should I remove?", "2026-03-01T12:30:00Z"}, records[1])
	assert.Equal(t, "assistant", records[2][1])
	assert.Equal(t, messages[1].Text, records[2][2])
}

func TestWriteTranscriptEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTranscript(&buf, nil))

	assert.Equal(t, "Turn,Speaker,Message,Time\n", buf.String())
}
