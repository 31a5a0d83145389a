// Package notify classifies NPS comments and delivers them to Google Chat.
package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/nps-watcher/internal/types"
)

// NPS categories and their color markers.
const (
	CategoryDetractor = "Detractor"
	CategoryPassive   = "Passive"
	CategoryPromoter  = "Promoter"

	markerDetractor = "🔴"
	markerPassive   = "🟠"
	markerPromoter  = "🟢"
)

// ScoreValue coerces the literal score text to an int. Empty or unparsable
// scores count as zero.
func ScoreValue(score string) int {
	v, err := strconv.Atoi(strings.TrimSpace(score))
	if err != nil {
		return 0
	}
	return v
}

// Classify maps a literal score to its NPS category and color marker.
// Boundaries are <=4 detractor and <=7 passive; 8 and up are promoters.
func Classify(score string) (category, marker string) {
	switch v := ScoreValue(score); {
	case v <= 4:
		return CategoryDetractor, markerDetractor
	case v <= 7:
		return CategoryPassive, markerPassive
	default:
		return CategoryPromoter, markerPromoter
	}
}

// Notification is the Google Chat card payload for one new comment.
type Notification struct {
	Cards []Card `json:"cards"`
}

// Card is one Chat card with a header and widget sections.
type Card struct {
	Header   CardHeader    `json:"header"`
	Sections []CardSection `json:"sections"`
}

// CardHeader holds the card title and subtitle.
type CardHeader struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// CardSection groups widgets.
type CardSection struct {
	Widgets []Widget `json:"widgets"`
}

// Widget is either a keyValue or a textParagraph; the unset field is omitted.
type Widget struct {
	KeyValue      *KeyValue      `json:"keyValue,omitempty"`
	TextParagraph *TextParagraph `json:"textParagraph,omitempty"`
}

// KeyValue is a labelled value widget.
type KeyValue struct {
	TopLabel string `json:"topLabel"`
	Content  string `json:"content"`
}

// TextParagraph is a free-text widget; Chat renders <br> as a line break.
type TextParagraph struct {
	Text string `json:"text"`
}

// Format renders a comment as a Chat card: fixed title, marker + store +
// category subtitle, then timestamp, coerced score, and the comment body with
// newlines converted to Chat's line-break token.
func Format(c types.Comment) Notification {
	category, marker := Classify(c.Score)
	return Notification{Cards: []Card{{
		Header: CardHeader{
			Title:    "New NPS Comment",
			Subtitle: fmt.Sprintf("%s %s (%s)", marker, c.Store, category),
		},
		Sections: []CardSection{{Widgets: []Widget{
			{KeyValue: &KeyValue{TopLabel: "Timestamp", Content: c.Timestamp}},
			{KeyValue: &KeyValue{TopLabel: "Score", Content: strconv.Itoa(ScoreValue(c.Score))}},
			{TextParagraph: &TextParagraph{Text: strings.ReplaceAll(c.Comment, "\n", "<br>")}},
		}}},
	}}}
}
