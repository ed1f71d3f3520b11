package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/young1lin/exa-bridge/internal/models"
)

const excerptLength = 300

var resultColumns = []string{"title", "url", "published_date", "author", "source", "score", "text"}

// FormatResults renders results as the plain-text report printed by the CLI
func FormatResults(query string, results []models.SearchResult) string {
	if len(results) == 0 {
		return "No search results found."
	}

	rule := strings.Repeat("=", 80)
	divider := strings.Repeat("-", 80)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nDISPLAYING TOP %d RESULTS FOR: %s\n%s\n", rule, len(results), query, rule)

	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "Unknown Title"
		}

		fmt.Fprintf(&b, "\nRESULT %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", title)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, "Published: %s\n", r.PublishedDate)
		}
		if r.Author != "" {
			fmt.Fprintf(&b, "Author: %s\n", r.Author)
		}
		if r.Source != "" {
			fmt.Fprintf(&b, "Source: %s\n", r.Source)
		}
		if r.Score != nil {
			fmt.Fprintf(&b, "Relevance Score: %s\n", formatScore(r.Score))
		}
		if r.Text != "" {
			fmt.Fprintf(&b, "\nExcerpt: %s\n", truncate(r.Text, excerptLength))
		}
		b.WriteString(divider)
		b.WriteByte('\n')
	}

	return b.String()
}

// ResultsTable lays results out for the spreadsheet export
func ResultsTable(results []models.SearchResult) *models.Table {
	table := &models.Table{Rows: make([]models.Row, 0, len(results))}
	for _, key := range resultColumns {
		table.Columns = append(table.Columns, models.Column{Key: key, Title: key})
	}

	for _, r := range results {
		table.Rows = append(table.Rows, models.Row{
			"title":          r.Title,
			"url":            r.URL,
			"published_date": r.PublishedDate,
			"author":         r.Author,
			"source":         r.Source,
			"score":          formatScore(r.Score),
			"text":           truncate(r.Text, excerptLength),
		})
	}
	return table
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}

// truncate cuts s to n runes, marking the cut with "..."
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
