package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBalanceParserFindsSeparatedBalance(t *testing.T) {
	t.Parallel()

	parser := NewBalanceParser("Орешков")

	tests := []struct {
		name string
		text string
		want int64
	}{
		{name: "plain", text: "Орешков: 42", want: 42},
		{name: "comma separated", text: "Орешков: 1,234", want: 1234},
		{name: "embedded in profile card", text: "📋 Профиль суслика\n🌰 Орешков: 5,000\n⭐ Уровень: 3", want: 5000},
		{name: "space separated", text: "🌰 Орешков: 12 345", want: 12345},
		{name: "nbsp separated", text: "Орешков: 7 654", want: 7654},
		{name: "dot separated", text: "Орешков: 2.500", want: 2500},
		{name: "zero", text: "🌰 Орешков: 0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := parser.Parse(tt.text)
			assert.True(t, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBalanceParserReportsAbsence(t *testing.T) {
	t.Parallel()

	parser := NewBalanceParser("Орешков")

	tests := []struct {
		name string
		text string
	}{
		{name: "empty body", text: ""},
		{name: "no label", text: "Суслик покормлен!"},
		{name: "label without digits", text: "Орешков: много"},
		{name: "different label", text: "Желудей: 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := parser.Parse(tt.text)
			assert.False(t, found)
			assert.Zero(t, got)
		})
	}
}

func TestBalanceParserIgnoresMalformedNumbersOutsideLabel(t *testing.T) {
	t.Parallel()

	parser := NewBalanceParser("Орешков")

	got, found := parser.Parse("id: 12abc34 garbage\nОрешков: 9,001 штук")
	assert.True(t, found)
	assert.Equal(t, int64(9001), got)
}

func TestBalanceParserCustomLabel(t *testing.T) {
	t.Parallel()

	parser := NewBalanceParser("Nuts")

	got, found := parser.Parse("Profile\nNuts: 3,000")
	assert.True(t, found)
	assert.Equal(t, int64(3000), got)
}

func TestBalanceParserEmptyLabelFallsBackToDefault(t *testing.T) {
	t.Parallel()

	parser := NewBalanceParser("  ")

	got, found := parser.Parse("Орешков: 17")
	assert.True(t, found)
	assert.Equal(t, int64(17), got)
}
