package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"menuopt/internal/models"
)

// Thresholds used by the menu views
const (
	LowOrderLimit       = 5
	HighWasteLimit      = 100
	ChatMarginThreshold = 100

	DefaultMarginThreshold = 100
	MinMarginThreshold     = 50
	MaxMarginThreshold     = 200
)

// ErrEmptyDataset is returned when no row carries a usable waste cost
var ErrEmptyDataset = errors.New("no dish has a waste cost")

// Option configures an Engine
type Option func(*Engine)

// WithCurrencySymbol sets the prefix used when answers mention money
func WithCurrencySymbol(symbol string) Option {
	return func(e *Engine) {
		e.currency = symbol
	}
}

// Engine answers menu questions over a table that never changes after
// construction. All methods are safe for concurrent readers.
type Engine struct {
	rows     []models.MenuRow
	currency string
	rules    []rule
}

// New creates an engine over a private copy of rows
func New(rows []models.MenuRow, opts ...Option) *Engine {
	e := &Engine{
		rows:     append([]models.MenuRow(nil), rows...),
		currency: "₹",
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rules = defaultRules()
	return e
}

// Len returns the number of dishes
func (e *Engine) Len() int {
	return len(e.rows)
}

// Rows returns a copy of the full table
func (e *Engine) Rows() []models.MenuRow {
	return append([]models.MenuRow(nil), e.rows...)
}

// CurrencySymbol returns the configured currency prefix
func (e *Engine) CurrencySymbol() string {
	return e.currency
}

func (e *Engine) filter(keep func(models.MenuRow) bool) []models.MenuRow {
	out := make([]models.MenuRow, 0)
	for _, row := range e.rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func isRemovalCandidate(row models.MenuRow) bool {
	return row.WeeklyOrders.Less(LowOrderLimit) && row.WasteCost.Greater(HighWasteLimit)
}

func isHighWaste(row models.MenuRow) bool {
	return row.WasteCost.Greater(HighWasteLimit)
}

func isSlowSelling(row models.MenuRow) bool {
	return row.WeeklyOrders.Less(LowOrderLimit)
}

// removalRows is the single removal rule shared by the views and the chat
func (e *Engine) removalRows() []models.MenuRow {
	return e.filter(isRemovalCandidate)
}

// RemovalCandidates lists low-selling, high-waste dishes in sheet order
func (e *Engine) RemovalCandidates() []models.RemovalView {
	rows := e.removalRows()
	out := make([]models.RemovalView, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.RemovalView{
			Dish:         row.Dish,
			WeeklyOrders: row.WeeklyOrders,
			WasteCost:    row.WasteCost,
			KeepRemove:   row.KeepRemove,
		})
	}
	return out
}

// WasteRanking lists every dish by descending waste cost. Dishes without a
// waste cost go last; ties keep sheet order.
func (e *Engine) WasteRanking() []models.WasteView {
	out := make([]models.WasteView, 0, len(e.rows))
	for _, row := range e.rows {
		out = append(out, models.WasteView{
			Dish:        row.Dish,
			Ingredients: row.Ingredients,
			WasteCost:   row.WasteCost,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return wasteBefore(out[i].WasteCost, out[j].WasteCost)
	})
	return out
}

func wasteBefore(a, b models.Amount) bool {
	if !a.Valid {
		return false
	}
	if !b.Valid {
		return true
	}
	return a.Value > b.Value
}

// HighWasteSuggestions pairs high-waste dishes with their rework ideas
func (e *Engine) HighWasteSuggestions() []models.SuggestionView {
	rows := e.filter(isHighWaste)
	out := make([]models.SuggestionView, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.SuggestionView{
			Dish:          row.Dish,
			Ingredients:   row.Ingredients,
			WasteCost:     row.WasteCost,
			SuggestedDish: row.SuggestedDish,
		})
	}
	return out
}

// HighMarginDishes lists dishes whose margin is at least threshold. The
// threshold is not clamped; callers restrict it to the advertised range.
func (e *Engine) HighMarginDishes(threshold float64) []models.MarginView {
	rows := e.filter(func(row models.MenuRow) bool {
		return row.ProfitMargin.AtLeast(threshold)
	})
	out := make([]models.MarginView, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.MarginView{
			Dish:         row.Dish,
			Ingredients:  row.Ingredients,
			ProfitMargin: row.ProfitMargin,
		})
	}
	return out
}

// MostWastedRow returns the first dish holding the maximum waste cost
func (e *Engine) MostWastedRow() (models.MenuRow, error) {
	best := -1
	for i, row := range e.rows {
		if !row.WasteCost.Valid {
			continue
		}
		if best < 0 || row.WasteCost.Value > e.rows[best].WasteCost.Value {
			best = i
		}
	}
	if best < 0 {
		return models.MenuRow{}, ErrEmptyDataset
	}
	return e.rows[best], nil
}

// MostWastedSummary renders the headline for the most wasted ingredients
func (e *Engine) MostWastedSummary() (string, error) {
	row, err := e.MostWastedRow()
	if err != nil {
		return "", err
	}
	return e.WasteSummary(row), nil
}

// WasteSummary renders the most-wasted headline for a given row
func (e *Engine) WasteSummary(row models.MenuRow) string {
	return fmt.Sprintf("Most wasted: %s costing %s%s", row.Ingredients, e.currency, row.WasteCost)
}

// RestockReduction lists slow-selling dishes whose stock can shrink
func (e *Engine) RestockReduction() []models.RestockView {
	rows := e.filter(isSlowSelling)
	out := make([]models.RestockView, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.RestockView{
			Dish:         row.Dish,
			Ingredients:  row.Ingredients,
			WeeklyOrders: row.WeeklyOrders,
		})
	}
	return out
}

// AllIngredientsText joins every recorded ingredient list in sheet order
func (e *Engine) AllIngredientsText() string {
	parts := make([]string, 0, len(e.rows))
	for _, row := range e.rows {
		if row.Ingredients == "" {
			continue
		}
		parts = append(parts, row.Ingredients)
	}
	return strings.Join(parts, ", ")
}

func dishNames(rows []models.MenuRow) string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Dish)
	}
	return strings.Join(names, ", ")
}
