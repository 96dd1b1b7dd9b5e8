package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Amount is a numeric cell that may be absent. A coercion failure in the
// source sheet produces an invalid Amount, and an invalid Amount never
// satisfies an ordering comparison.
type Amount struct {
	Value float64
	Valid bool
}

// Some returns a present Amount
func Some(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// None returns an absent Amount
func None() Amount {
	return Amount{}
}

// ParseAmount coerces a raw cell. Anything strconv cannot read, and any
// non-finite value, is absent.
func ParseAmount(raw string) Amount {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return None()
	}
	return Some(f)
}

// Less reports whether the amount is present and strictly below limit
func (a Amount) Less(limit float64) bool {
	return a.Valid && a.Value < limit
}

// Greater reports whether the amount is present and strictly above limit
func (a Amount) Greater(limit float64) bool {
	return a.Valid && a.Value > limit
}

// AtLeast reports whether the amount is present and not below limit
func (a Amount) AtLeast(limit float64) bool {
	return a.Valid && a.Value >= limit
}

// String renders the shortest decimal form, or "" when absent.
func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	return strconv.FormatFloat(a.Value, 'f', -1, 64)
}

// Ptr converts the amount into a nullable pointer for storage
func (a Amount) Ptr() *float64 {
	if !a.Valid {
		return nil
	}
	v := a.Value
	return &v
}

// MarshalJSON emits null for absent amounts and for values JSON cannot hold
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid || math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON accepts a number or null
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Some(v)
	return nil
}

// MenuRow is one dish record of the menu sheet
type MenuRow struct {
	Dish          string `json:"dish"`
	Ingredients   string `json:"ingredients"`
	WeeklyOrders  Amount `json:"weekly_orders"`
	WasteCost     Amount `json:"waste_cost"`
	ProfitMargin  Amount `json:"profit_margin"`
	KeepRemove    string `json:"keep_remove"`
	SuggestedDish string `json:"suggested_dish"`
}

// RemovalView is the projection shown for dishes that should leave the menu
type RemovalView struct {
	Dish         string `json:"dish"`
	WeeklyOrders Amount `json:"weekly_orders"`
	WasteCost    Amount `json:"waste_cost"`
	KeepRemove   string `json:"keep_remove"`
}

// WasteView pairs a dish's ingredients with their waste cost
type WasteView struct {
	Dish        string `json:"dish"`
	Ingredients string `json:"ingredients"`
	WasteCost   Amount `json:"waste_cost"`
}

// SuggestionView is a high-waste dish with its rework idea
type SuggestionView struct {
	Dish          string `json:"dish"`
	Ingredients   string `json:"ingredients"`
	WasteCost     Amount `json:"waste_cost"`
	SuggestedDish string `json:"suggested_dish"`
}

// MarginView is a dish with its profit margin
type MarginView struct {
	Dish         string `json:"dish"`
	Ingredients  string `json:"ingredients"`
	ProfitMargin Amount `json:"profit_margin"`
}

// RestockView is a slow-selling dish whose stock can be reduced
type RestockView struct {
	Dish         string `json:"dish"`
	Ingredients  string `json:"ingredients"`
	WeeklyOrders Amount `json:"weekly_orders"`
}
