package websets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/young1lin/exa-bridge/internal/models"
)

func decodeItems(t *testing.T, data string) []models.Item {
	t.Helper()
	var items []models.Item
	require.NoError(t, json.Unmarshal([]byte(data), &items))
	return items
}

func columnKeys(table *models.Table) []string {
	keys := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		keys = append(keys, c.Key)
	}
	return keys
}

const personAndCompany = `[
	{
		"id": "witem_1", "source": "search", "websetId": "ws_1",
		"properties": {"type": "person", "url": "https://linkedin.com/in/jane", "person": {"name": "Jane Doe", "location": "Austin, TX", "position": "Founder"}},
		"enrichments": [{"enrichmentId": "enr_email", "format": "email", "result": ["jane@acme.io"]}]
	},
	{
		"id": "witem_2", "source": "search", "websetId": "ws_1",
		"properties": {"type": "company", "url": "https://acme.io", "company": {"name": "Acme", "location": "Austin, TX", "employees": 12, "industry": "Software"}},
		"enrichments": [{"enrichmentId": "enr_email", "format": "email", "result": null}]
	}
]`

func TestFlattenPersonAndCompany(t *testing.T) {
	items := decodeItems(t, personAndCompany)

	table := Flatten(items, map[string]string{"enr_email": "Email"})

	assert.Equal(t, []string{
		"id", "source", "webset_id", "url", "type", "name",
		"location", "position", "employees", "industry",
		"enr_email",
	}, columnKeys(table))
	assert.Equal(t, "Email", table.Columns[len(table.Columns)-1].Title)

	require.Len(t, table.Rows, 2)
	jane, acme := table.Rows[0], table.Rows[1]

	assert.Equal(t, "witem_1", jane["id"])
	assert.Equal(t, "Jane Doe", jane["name"])
	assert.Equal(t, "person", jane["type"])
	assert.Equal(t, "Founder", jane["position"])
	assert.Equal(t, "", jane["employees"])
	assert.Equal(t, "jane@acme.io", jane["enr_email"])

	assert.Equal(t, "Acme", acme["name"])
	assert.Equal(t, "12", acme["employees"])
	assert.Equal(t, "", acme["position"])
	assert.Equal(t, "", acme["enr_email"])
}

func TestFlattenEveryRowHasEveryColumn(t *testing.T) {
	items := decodeItems(t, `[
		{"id": "a", "properties": {"type": "article", "url": "https://a", "article": {"author": "Ann"}},
		 "enrichments": [{"enrichmentId": "enr_1", "result": ["x"]}]},
		{"id": "b", "properties": {"type": "podcast", "url": "https://b"}},
		{"id": "c", "properties": {"type": "person", "url": "https://c", "person": {"name": "Cy"}},
		 "enrichments": [{"enrichmentId": "enr_2", "result": ["y", "", "z"]}]}
	]`)

	table := Flatten(items, nil)

	require.Len(t, table.Rows, len(items))
	for i, row := range table.Rows {
		assert.Len(t, row, len(table.Columns), "row %d", i)
		for _, c := range table.Columns {
			_, ok := row[c.Key]
			assert.True(t, ok, "row %d missing %s", i, c.Key)
		}
	}

	assert.Equal(t, "podcast", table.Rows[1]["type"])
	assert.Equal(t, "", table.Rows[1]["name"])
	assert.Equal(t, "y; z", table.Rows[2]["enr_2"])
	assert.Equal(t, "enr_2", table.Columns[len(table.Columns)-1].Title)
}

func TestFlattenKeepsOrder(t *testing.T) {
	items := decodeItems(t, `[
		{"id": "3", "properties": {"type": "custom", "url": "https://3"}},
		{"id": "1", "properties": {"type": "custom", "url": "https://1"}},
		{"id": "2", "properties": {"type": "custom", "url": "https://2"}}
	]`)

	table := Flatten(items, nil)

	ids := make([]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		ids = append(ids, r["id"])
	}
	assert.Equal(t, []string{"3", "1", "2"}, ids)
}

func TestFlattenIsDeterministic(t *testing.T) {
	titles := map[string]string{"enr_email": "Email"}

	first := Flatten(decodeItems(t, personAndCompany), titles)
	second := Flatten(decodeItems(t, personAndCompany), titles)

	assert.Equal(t, first, second)
}

func TestFlattenEmpty(t *testing.T) {
	table := Flatten(nil, nil)

	assert.Equal(t, identityColumns, columnKeys(table))
	assert.Empty(t, table.Rows)
}

func TestFlattenEnrichmentIDCollision(t *testing.T) {
	items := decodeItems(t, `[
		{"id": "a", "properties": {"type": "person", "url": "https://a", "person": {"name": "Al"}},
		 "enrichments": [{"enrichmentId": "name", "result": ["Albert"]}]}
	]`)

	table := Flatten(items, map[string]string{"name": "Full name"})

	assert.Equal(t, "Al", table.Rows[0]["name"])
	assert.Equal(t, "Albert", table.Rows[0]["enrichment:name"])
	assert.Equal(t, "Full name", table.Columns[len(table.Columns)-1].Title)
}

func TestFlattenEnrichmentNamedLikeVariantField(t *testing.T) {
	items := decodeItems(t, `[
		{"id": "a", "properties": {"type": "podcast", "url": "https://a"},
		 "enrichments": [{"enrichmentId": "location", "result": ["Berlin"]}]},
		{"id": "b", "properties": {"type": "person", "url": "https://b", "person": {"name": "Bo", "location": "Paris"}},
		 "enrichments": [{"enrichmentId": "location", "result": ["Lyon"]}]}
	]`)

	table := Flatten(items, nil)

	assert.Equal(t, []string{
		"id", "source", "webset_id", "url", "type", "name",
		"location", "position",
		"enrichment:location",
	}, columnKeys(table))

	assert.Equal(t, "", table.Rows[0]["location"])
	assert.Equal(t, "Berlin", table.Rows[0]["enrichment:location"])
	assert.Equal(t, "Paris", table.Rows[1]["location"])
	assert.Equal(t, "Lyon", table.Rows[1]["enrichment:location"])
	assert.Equal(t, "location", table.Columns[len(table.Columns)-1].Title)
}

func TestEnrichmentTitles(t *testing.T) {
	ws := &models.Webset{
		Enrichments: []models.WebsetEnrichment{
			{ID: "enr_1", Title: "Contact email", Description: "Extract the email"},
			{ID: "enr_2", Description: "Extract the phone"},
			{ID: "enr_3", Description: "Extract the company"},
		},
	}

	titles := EnrichmentTitles(ws, map[string]string{
		"Extract the email": "Email",
		"Extract the phone": "Phone",
	})

	assert.Equal(t, map[string]string{
		"enr_1": "Email",
		"enr_2": "Phone",
		"enr_3": "Extract the company",
	}, titles)
	assert.Empty(t, EnrichmentTitles(nil, nil))
}
