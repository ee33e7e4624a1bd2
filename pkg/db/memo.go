package db

import (
	"fmt"
	"strings"
)

// memoPlaceholder is returned when no insights have been recorded.
const memoPlaceholder = "No data insights have been discovered yet."

// AddInsight appends a free-text insight to the log. Insights are never
// validated or deduplicated.
func (c *Client) AddInsight(insight string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insights = append(c.insights, insight)
}

// Insights returns a copy of the insight log in recording order.
func (c *Client) Insights() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.insights))
	copy(out, c.insights)
	return out
}

// Memo renders the collected insights as a human-readable report. With a
// single insight the summary sentence is omitted.
func (c *Client) Memo() string {
	insights := c.Insights()
	if len(insights) == 0 {
		return memoPlaceholder
	}

	var b strings.Builder
	b.WriteString("📊 Data Intelligence Memo 📊\n\n")
	b.WriteString("Key Insights Discovered:\n\n")
	for i, insight := range insights {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + insight)
	}

	if len(insights) > 1 {
		fmt.Fprintf(&b,
			"\n\nSummary:\nAnalysis has revealed %d key data insights that suggest opportunities for strategic optimization and growth.",
			len(insights))
	}

	return b.String()
}
