package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want Amount
	}{
		{raw: "12", want: Some(12)},
		{raw: "150.75", want: Some(150.75)},
		{raw: "-3", want: Some(-3)},
		{raw: "", want: None()},
		{raw: "n/a", want: None()},
		{raw: "₹100", want: None()},
		{raw: "NaN", want: None()},
		{raw: "inf", want: None()},
		{raw: "+Inf", want: None()},
		{raw: "-Infinity", want: None()},
		{raw: "1e400", want: None()},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseAmount(tt.raw), tt.raw)
	}
}

func TestAmountComparisonsFailWhenAbsent(t *testing.T) {
	absent := None()

	assert.False(t, absent.Less(1e9))
	assert.False(t, absent.Greater(-1e9))
	assert.False(t, absent.AtLeast(-1e9))

	assert.True(t, Some(4).Less(5))
	assert.False(t, Some(5).Less(5))
	assert.True(t, Some(101).Greater(100))
	assert.False(t, Some(100).Greater(100))
	assert.True(t, Some(100).AtLeast(100))
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "", None().String())
	assert.Equal(t, "150", Some(150).String())
	assert.Equal(t, "0.1", Some(0.1).String())
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(MenuRow{Dish: "Soup", WasteCost: Some(12.5)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"waste_cost":12.5`)
	assert.Contains(t, string(data), `"weekly_orders":null`)

	var row MenuRow
	require.NoError(t, json.Unmarshal(data, &row))
	assert.Equal(t, Some(12.5), row.WasteCost)
	assert.Equal(t, None(), row.WeeklyOrders)
}

func TestAmountJSONNonFinite(t *testing.T) {
	data, err := json.Marshal(MenuRow{Dish: "Soup", WasteCost: Some(math.Inf(1)), ProfitMargin: Some(math.NaN())})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"waste_cost":null`)
	assert.Contains(t, string(data), `"profit_margin":null`)
}

func TestAmountPtr(t *testing.T) {
	assert.Nil(t, None().Ptr())
	require.NotNil(t, Some(3).Ptr())
	assert.Equal(t, 3.0, *Some(3).Ptr())
}

func TestChatMessageSpeaker(t *testing.T) {
	assert.Equal(t, "user", ChatMessage{IsUser: true}.Speaker())
	assert.Equal(t, "assistant", ChatMessage{}.Speaker())
}
