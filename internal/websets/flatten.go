package websets

import (
	"github.com/young1lin/exa-bridge/internal/models"
)

// ValueSeparator joins multiple enrichment results in one cell
const ValueSeparator = "; "

// identityColumns lead every table in this order
var identityColumns = []string{"id", "source", "webset_id", "url", "type", "name"}

// variantKeys are every field key a known entity variant can produce
var variantKeys = []string{"location", "position", "employees", "industry", "author", "published_at"}

// Flatten turns webset items into a table. titles maps enrichment id to
// the column title; ids without a title use the id itself.
//
// Rows keep the input order. Identity columns come first, then variant
// fields and enrichments, each in first-seen order. Every row has a value
// for every column.
func Flatten(items []models.Item, titles map[string]string) *models.Table {
	reserved := make(map[string]bool, len(identityColumns)+len(variantKeys))
	for _, key := range identityColumns {
		reserved[key] = true
	}
	for _, key := range variantKeys {
		reserved[key] = true
	}

	var variantCols, enrichmentCols []models.Column
	seenVariant := make(map[string]bool)
	seenEnrichment := make(map[string]bool)
	rows := make([]models.Row, 0, len(items))

	for _, item := range items {
		props := item.Properties
		row := models.Row{
			"id":        item.ID,
			"source":    item.Source,
			"webset_id": item.WebsetID,
			"url":       props.URL,
			"type":      string(props.Type),
			"name":      props.Name(),
		}

		if props.Entity != nil {
			for _, f := range props.Entity.Fields() {
				if !seenVariant[f.Key] {
					seenVariant[f.Key] = true
					reserved[f.Key] = true
					variantCols = append(variantCols, models.Column{Key: f.Key, Title: f.Key})
				}
				row[f.Key] = f.Value
			}
		}

		for _, e := range item.Enrichments {
			if e.EnrichmentID == "" {
				continue
			}
			key := enrichmentKey(e.EnrichmentID, reserved)
			if !seenEnrichment[key] {
				seenEnrichment[key] = true
				enrichmentCols = append(enrichmentCols, models.Column{Key: key, Title: columnTitle(e.EnrichmentID, titles)})
			}
			row[key] = e.Result.Join(ValueSeparator)
		}

		rows = append(rows, row)
	}

	columns := make([]models.Column, 0, len(identityColumns)+len(variantCols)+len(enrichmentCols))
	for _, key := range identityColumns {
		columns = append(columns, models.Column{Key: key, Title: key})
	}
	columns = append(columns, variantCols...)
	columns = append(columns, enrichmentCols...)

	for _, row := range rows {
		for _, c := range columns {
			if _, ok := row[c.Key]; !ok {
				row[c.Key] = ""
			}
		}
	}

	return &models.Table{Columns: columns, Rows: rows}
}

// enrichmentKey keeps enrichment ids from clobbering identity or variant columns
func enrichmentKey(id string, reserved map[string]bool) string {
	if reserved[id] {
		return "enrichment:" + id
	}
	return id
}

func columnTitle(id string, titles map[string]string) string {
	if t := titles[id]; t != "" {
		return t
	}
	return id
}

// EnrichmentTitles maps each enrichment id of ws to its column title.
// byDescription overrides the provider's label for enrichments whose
// description matches, which is how locally chosen titles survive the
// round trip.
func EnrichmentTitles(ws *models.Webset, byDescription map[string]string) map[string]string {
	if ws == nil {
		return map[string]string{}
	}
	titles := ws.EnrichmentTitles()
	for _, e := range ws.Enrichments {
		if t := byDescription[e.Description]; t != "" {
			titles[e.ID] = t
		}
	}
	return titles
}
