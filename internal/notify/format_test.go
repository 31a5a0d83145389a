package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/nps-watcher/internal/types"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		score    string
		category string
		marker   string
	}{
		{"0", CategoryDetractor, "🔴"},
		{"4", CategoryDetractor, "🔴"},
		{"5", CategoryPassive, "🟠"},
		{"7", CategoryPassive, "🟠"},
		{"8", CategoryPromoter, "🟢"},
		{"10", CategoryPromoter, "🟢"},
		// Missing or unparsable scores classify as 0.
		{"", CategoryDetractor, "🔴"},
		{"abc", CategoryDetractor, "🔴"},
	}

	for _, tt := range tests {
		t.Run("score="+tt.score, func(t *testing.T) {
			category, marker := Classify(tt.score)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.marker, marker)
		})
	}
}

func TestScoreValue(t *testing.T) {
	assert.Equal(t, 9, ScoreValue("9"))
	assert.Equal(t, 0, ScoreValue(""))
	assert.Equal(t, 0, ScoreValue("abc"))
}

func TestFormat_PromoterCard(t *testing.T) {
	n := Format(types.Comment{
		Store:     "5 Downtown Store",
		Timestamp: "2024-01-01 10:00",
		Comment:   "Great service",
		Score:     "9",
	})

	require.Len(t, n.Cards, 1)
	card := n.Cards[0]

	assert.Equal(t, "New NPS Comment", card.Header.Title)
	assert.Equal(t, "🟢 5 Downtown Store (Promoter)", card.Header.Subtitle)

	require.Len(t, card.Sections, 1)
	widgets := card.Sections[0].Widgets
	require.Len(t, widgets, 3)

	require.NotNil(t, widgets[0].KeyValue)
	assert.Equal(t, "Timestamp", widgets[0].KeyValue.TopLabel)
	assert.Equal(t, "2024-01-01 10:00", widgets[0].KeyValue.Content)

	require.NotNil(t, widgets[1].KeyValue)
	assert.Equal(t, "Score", widgets[1].KeyValue.TopLabel)
	assert.Equal(t, "9", widgets[1].KeyValue.Content)

	require.NotNil(t, widgets[2].TextParagraph)
	assert.Equal(t, "Great service", widgets[2].TextParagraph.Text)
}

func TestFormat_NewlinesBecomeLineBreakTokens(t *testing.T) {
	n := Format(types.Comment{
		Store:   "12 Airport Kiosk",
		Comment: "Line was long\nbut staff were kind",
		Score:   "6",
	})

	text := n.Cards[0].Sections[0].Widgets[2].TextParagraph.Text
	assert.Equal(t, "Line was long<br>but staff were kind", text)
}

func TestFormat_UnparsableScoreRendersAsZero(t *testing.T) {
	n := Format(types.Comment{Store: "3 Harbor Cafe", Score: "abc"})

	assert.Equal(t, "🔴 3 Harbor Cafe (Detractor)", n.Cards[0].Header.Subtitle)
	assert.Equal(t, "0", n.Cards[0].Sections[0].Widgets[1].KeyValue.Content)
}
