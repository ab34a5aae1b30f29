// Package announce holds enriched announcement records. The source
// document URL is the sole identity: the originating feed publishes no
// stable ID, so the URL doubles as the dedup key.
package announce

import "time"

// Sentiment is the AI-assessed tone of an announcement.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Valid reports whether the value is in the sentiment domain.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Classification is the AI-assessed market implication.
type Classification string

const (
	ClassificationUpside   Classification = "Potential Upside"
	ClassificationDownside Classification = "Potential Downside"
	ClassificationNeutral  Classification = "Neutral"
)

// Valid reports whether the value is in the classification domain.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationUpside, ClassificationDownside, ClassificationNeutral:
		return true
	}
	return false
}

// Record is one enriched announcement. Records are written once, after a
// successful enrichment, and never updated.
//
// AnnouncementTime is the feed's own free-text stamp. It is stored and
// rendered as-is, never parsed: the feed's formats are inconsistent and
// CreatedAt covers every chronological need.
type Record struct {
	SourceURL        string         `json:"source_url"`
	Symbol           string         `json:"symbol"`
	CompanyName      string         `json:"company_name"`
	AnnouncementTime string         `json:"announcement_time"`
	Summary          string         `json:"summary"`
	Sentiment        Sentiment      `json:"sentiment"`
	Classification   Classification `json:"classification"`
	Reasoning        string         `json:"reasoning"`
	CreatedAt        time.Time      `json:"created_at"`
}
