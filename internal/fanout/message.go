package fanout

import (
	"fmt"
	"strings"

	"pravaha/internal/announce"
	"pravaha/internal/subscriber"
)

var sentimentMarks = map[announce.Sentiment]string{
	announce.SentimentPositive: "🟢",
	announce.SentimentNegative: "🔴",
	announce.SentimentNeutral:  "⚪",
}

// RenderMessage formats one record as a MarkdownV2 push message. Field
// values pass through CleanMarkdownV2 so user-visible text from the
// source feed can never break the markup.
func RenderMessage(record *announce.Record) string {
	mark, ok := sentimentMarks[record.Sentiment]
	if !ok {
		mark = "⚪"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* \\(%s\\)\n\n",
		mark,
		subscriber.CleanMarkdownV2(record.CompanyName),
		subscriber.CleanMarkdownV2(record.Symbol))
	fmt.Fprintf(&b, "%s\n\n", subscriber.CleanMarkdownV2(record.Summary))
	fmt.Fprintf(&b, "*Sentiment:* %s\n", subscriber.CleanMarkdownV2(string(record.Sentiment)))
	fmt.Fprintf(&b, "*Category:* %s\n", subscriber.CleanMarkdownV2(string(record.Classification)))
	if record.AnnouncementTime != "" {
		fmt.Fprintf(&b, "*Time:* %s\n", subscriber.CleanMarkdownV2(record.AnnouncementTime))
	}
	fmt.Fprintf(&b, "\n[Document](%s)", record.SourceURL)
	return b.String()
}
