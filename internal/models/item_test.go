package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemUnmarshal(t *testing.T) {
	t.Run("person", func(t *testing.T) {
		data := `{
			"id": "witem_1",
			"source": "search",
			"websetId": "ws_1",
			"properties": {
				"type": "person",
				"url": "https://linkedin.com/in/jane",
				"description": "Founder",
				"person": {"name": "Jane Doe", "location": "Berlin", "position": "CEO"}
			},
			"enrichments": [{"enrichmentId": "enr_1", "format": "email", "result": ["jane@example.com"]}]
		}`

		var item Item
		require.NoError(t, json.Unmarshal([]byte(data), &item))

		assert.Equal(t, EntityPerson, item.Properties.Type)
		assert.Equal(t, "Jane Doe", item.Properties.Name())
		person, ok := item.Properties.Entity.(*Person)
		require.True(t, ok)
		assert.Equal(t, "Berlin", person.Location)
		assert.Equal(t, Values{"jane@example.com"}, item.Enrichments[0].Result)
	})

	t.Run("company employees", func(t *testing.T) {
		data := `{"type": "company", "url": "https://acme.io", "company": {"name": "Acme", "employees": 42}}`

		var props Properties
		require.NoError(t, json.Unmarshal([]byte(data), &props))

		assert.Equal(t, "Acme", props.Name())
		fields := props.Entity.Fields()
		assert.Equal(t, Field{Key: "employees", Value: "42"}, fields[1])
	})

	t.Run("research paper uses camel case payload key", func(t *testing.T) {
		data := `{"type": "research_paper", "url": "https://arxiv.org/abs/1", "researchPaper": {"author": "A. Turing", "publishedAt": "1950-10-01"}}`

		var props Properties
		require.NoError(t, json.Unmarshal([]byte(data), &props))

		paper, ok := props.Entity.(*ResearchPaper)
		require.True(t, ok)
		assert.Equal(t, "A. Turing", paper.Author)
		assert.Empty(t, props.Name())
	})

	t.Run("unknown type keeps common fields", func(t *testing.T) {
		data := `{"type": "podcast", "url": "https://pod.example", "description": "episode", "podcast": {"host": "x"}}`

		var props Properties
		require.NoError(t, json.Unmarshal([]byte(data), &props))

		assert.Equal(t, EntityType("podcast"), props.Type)
		assert.Equal(t, "https://pod.example", props.URL)
		assert.Nil(t, props.Entity)
		assert.Empty(t, props.Name())
	})

	t.Run("malformed variant payload degrades", func(t *testing.T) {
		data := `{"type": "person", "url": "https://x", "person": "not an object"}`

		var props Properties
		require.NoError(t, json.Unmarshal([]byte(data), &props))

		assert.Nil(t, props.Entity)
		assert.Equal(t, "https://x", props.URL)
	})

	t.Run("missing variant payload", func(t *testing.T) {
		var props Properties
		require.NoError(t, json.Unmarshal([]byte(`{"type": "company", "url": "https://y"}`), &props))

		require.NotNil(t, props.Entity)
		assert.Equal(t, EntityCompany, props.Entity.EntityType())
		assert.Empty(t, props.Name())
	})
}

func TestPropertiesMarshalKeepsVariant(t *testing.T) {
	props := Properties{
		Type:   EntityPerson,
		URL:    "https://example.com",
		Entity: &Person{Name: "Ada"},
	}

	data, err := json.Marshal(props)
	require.NoError(t, err)

	var back Properties
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "Ada", back.Name())
	assert.Contains(t, string(data), `"person":{"name":"Ada"}`)
}

func TestValuesUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Values
	}{
		{"null", `null`, nil},
		{"bare string", `"a@b.c"`, Values{"a@b.c"}},
		{"list", `["one", "two"]`, Values{"one", "two"}},
		{"list with null and number", `["one", null, 3]`, Values{"one", "3"}},
		{"list with nested values", `["one", {"k": "v"}, ["x"], true]`, Values{"one", "true"}},
		{"empty list", `[]`, Values{}},
		{"bare number", `42`, Values{"42"}},
		{"bare bool", `false`, Values{"false"}},
		{"object", `{"k": "v"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Values
			require.NoError(t, json.Unmarshal([]byte(tt.in), &v))
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestItemPageWithOddResultKeepsEveryItem(t *testing.T) {
	data := `{
		"data": [
			{"id": "a", "properties": {"type": "person", "url": "https://a", "person": {"name": "Al"}},
			 "enrichments": [{"enrichmentId": "e1", "format": "text", "result": {"k": "v"}}]},
			{"id": "b", "properties": {"type": "person", "url": "https://b", "person": {"name": "Bo"}},
			 "enrichments": [{"enrichmentId": "e1", "format": "text", "result": ["found"]}]}
		],
		"hasMore": false
	}`

	var page ItemPage
	require.NoError(t, json.Unmarshal([]byte(data), &page))

	require.Len(t, page.Data, 2)
	assert.Nil(t, page.Data[0].Enrichments[0].Result)
	assert.Equal(t, "", page.Data[0].Enrichments[0].Result.Join("; "))
	assert.Equal(t, "found", page.Data[1].Enrichments[0].Result.Join("; "))
}

func TestItemMarshalKeepsProviderBytes(t *testing.T) {
	data := `{"id":"witem_9","source":"search","websetId":"ws_1",` +
		`"properties":{"type":"podcast","url":"https://p","podcast":{"host":"Ann","episodes":12}},` +
		`"evaluations":[{"criterion":"c","satisfied":"yes","extra":1}],` +
		`"enrichments":[{"enrichmentId":"e1","result":{"k":"v"}}],"score":0.7}`

	var it Item
	require.NoError(t, json.Unmarshal([]byte(data), &it))
	assert.Nil(t, it.Properties.Entity)

	out, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, data, string(out))
	assert.NotContains(t, string(out), "0001-01-01")

	list, err := json.Marshal([]Item{it})
	require.NoError(t, err)
	assert.JSONEq(t, "["+data+"]", string(list))
}

func TestItemMarshalWithoutProviderBytes(t *testing.T) {
	it := Item{ID: "witem_1", Properties: Properties{Type: EntityPerson, URL: "https://x", Entity: &Person{Name: "Ada"}}}

	out, err := json.Marshal(it)
	require.NoError(t, err)

	var back Item
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "witem_1", back.ID)
	assert.Equal(t, "Ada", back.Properties.Name())
}

func TestValuesJoin(t *testing.T) {
	assert.Equal(t, "", Values(nil).Join("; "))
	assert.Equal(t, "a; b", Values{"a", " ", "b"}.Join("; "))
}

func TestWebsetHelpers(t *testing.T) {
	ws := &Webset{
		Searches: []WebsetSearch{
			{Progress: SearchProgress{Found: 3}},
			{Progress: SearchProgress{Found: 2}},
		},
		Enrichments: []WebsetEnrichment{
			{ID: "enr_1", Title: "Email", Description: "Find email"},
			{ID: "enr_2", Description: "Phone number"},
			{ID: "enr_3"},
		},
	}

	assert.Equal(t, 5, ws.Found())
	assert.Equal(t, map[string]string{
		"enr_1": "Email",
		"enr_2": "Phone number",
		"enr_3": "enr_3",
	}, ws.EnrichmentTitles())

	assert.True(t, WebsetStatusPending.Known())
	assert.False(t, WebsetStatus("archived").Known())
}
