package classifier

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerlens/internal/models"
)

func testTransaction() models.Transaction {
	return models.Transaction{
		ID:          "bank-t1",
		Description: "AMAZON MKTPLACE",
		Amount:      decimal.RequireFromString("-42.10"),
		Date:        time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Kind:        models.KindExpense,
	}
}

func testCategories() []models.Category {
	return []models.Category{
		{ID: "64", Name: "Office Supplies"},
		{ID: "72", Name: "Travel"},
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object",
			raw:  `{"categoryId": "64", "confidence": 0.9}`,
			want: `{"categoryId": "64", "confidence": 0.9}`,
		},
		{
			name: "object inside prose",
			raw:  `Sure! Here is the classification: {"categoryId": "64"} hope that helps.`,
			want: `{"categoryId": "64"}`,
		},
		{
			name: "fenced json block",
			raw:  "```json\n{\"categoryId\": \"64\"}\n```",
			want: `{"categoryId": "64"}`,
		},
		{
			name: "plain fences",
			raw:  "```\n{\"categoryId\": \"64\"}\n```",
			want: `{"categoryId": "64"}`,
		},
		{
			name: "nested object",
			raw:  `{"outer": {"inner": 1}, "confidence": 0.8}`,
			want: `{"outer": {"inner": 1}, "confidence": 0.8}`,
		},
		{
			name: "braces inside strings ignored",
			raw:  `{"reasoning": "matches {pattern} well", "confidence": 0.7}`,
			want: `{"reasoning": "matches {pattern} well", "confidence": 0.7}`,
		},
		{
			name: "escaped quote inside string",
			raw:  `{"reasoning": "the \"best\" fit"}`,
			want: `{"reasoning": "the \"best\" fit"}`,
		},
		{
			name: "no json at all",
			raw:  "I cannot classify this transaction.",
			want: "",
		},
		{
			name: "unbalanced object",
			raw:  `{"categoryId": "64"`,
			want: "",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSONObject(tc.raw))
		})
	}
}

func TestParseResult(t *testing.T) {
	t.Run("usable result", func(t *testing.T) {
		result := ParseResult(`{"categoryId": "64", "categoryName": "Office Supplies", "confidence": 0.85, "reasoning": "stationery vendor"}`)
		require.NotNil(t, result)
		assert.Equal(t, "64", result.CategoryID)
		assert.Equal(t, "Office Supplies", result.CategoryName)
		assert.InDelta(t, 0.85, result.Confidence, 1e-9)
		assert.False(t, result.Unclear)
	})

	t.Run("low confidence marked unclear", func(t *testing.T) {
		result := ParseResult(`{"categoryName": "Office Supplies", "confidence": 0.3}`)
		require.NotNil(t, result)
		assert.True(t, result.Unclear)
	})

	t.Run("explicit unclear response", func(t *testing.T) {
		result := ParseResult(`{"categoryId": "", "categoryName": "", "confidence": 0.0, "reasoning": "unclear"}`)
		require.NotNil(t, result)
		assert.True(t, result.Unclear)
		assert.Empty(t, result.CategoryName)
	})

	t.Run("confidence clamped to unit interval", func(t *testing.T) {
		result := ParseResult(`{"categoryName": "Travel", "confidence": 1.7}`)
		require.NotNil(t, result)
		assert.Equal(t, 1.0, result.Confidence)

		result = ParseResult(`{"categoryName": "Travel", "confidence": -0.2}`)
		require.NotNil(t, result)
		assert.Equal(t, 0.0, result.Confidence)
		assert.True(t, result.Unclear)
	})

	t.Run("non json is no suggestion", func(t *testing.T) {
		assert.Nil(t, ParseResult("no idea"))
	})

	t.Run("malformed json is no suggestion", func(t *testing.T) {
		assert.Nil(t, ParseResult(`{"confidence": "not a number"}`))
	})
}

func TestBuildPromptListsCandidates(t *testing.T) {
	tx := testTransaction()
	prompt := buildPrompt(tx, testCategories())

	assert.Contains(t, prompt, "AMAZON MKTPLACE")
	assert.Contains(t, prompt, "64: Office Supplies")
	assert.Contains(t, prompt, "72: Travel")
	assert.Contains(t, prompt, "JSON")
}
