package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/young1lin/exa-bridge/internal/models"
)

func sampleTable() *models.Table {
	return &models.Table{
		Columns: []models.Column{
			{Key: "id", Title: "id"},
			{Key: "name", Title: "name"},
			{Key: "enr_1", Title: "Phone"},
			{Key: "enr_2", Title: "Phone"},
		},
		Rows: []models.Row{
			{"id": "1", "name": "Jane", "enr_1": "0123456789", "enr_2": ""},
			{"id": "2", "name": "", "enr_1": "", "enr_2": "+1 555 0100"},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTable(), FormatJSON))

	var doc struct {
		Results []map[string]string `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "0123456789", doc.Results[0]["Phone"])
	assert.Equal(t, "+1 555 0100", doc.Results[1]["Phone (enr_2)"])
	assert.Equal(t, "", doc.Results[1]["name"])

	// keys keep column order
	idx := bytes.Index(buf.Bytes(), []byte(`"id"`))
	nameIdx := bytes.Index(buf.Bytes(), []byte(`"name"`))
	assert.Less(t, idx, nameIdx)
}

func TestWriteJSONEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &models.Table{}, FormatJSON))
	assert.JSONEq(t, `{"results": []}`, buf.String())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTable(), FormatCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "name", "Phone", "Phone (enr_2)"},
		{"1", "Jane", "0123456789", ""},
		{"2", "", "", "+1 555 0100"},
	}, records)
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleTable(), "Search: AI/LLM labs?"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Search- AI-LLM labs-", f.GetSheetName(0))
	rows, err := f.GetRows("Search- AI-LLM labs-")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "name", "Phone", "Phone (enr_2)"}, rows[0])
	assert.Equal(t, "0123456789", rows[1][2])
	assert.Equal(t, "+1 555 0100", rows[2][3])
}

func TestWriteFileCreatesDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results", "nested", "webset_results.json")

	require.NoError(t, WriteFile(path, sampleTable(), FormatFromPath(path)))
	require.NoError(t, WriteWorkbookFile(SiblingPath(path, ".xlsx"), sampleTable(), DefaultSheet))

	_, err := os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "results", "nested", "webset_results.xlsx"))
	assert.NoError(t, err)
}

func TestWriteRawItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_results.json")
	items := []models.Item{{
		ID:         "witem_1",
		Properties: models.Properties{Type: models.EntityCompany, URL: "https://acme.io", Entity: &models.Company{Name: "Acme"}},
	}}

	require.NoError(t, WriteRawItems(path, items))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back []models.Item
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 1)
	assert.Equal(t, "Acme", back[0].Properties.Name())
}

func TestWriteRawItemsKeepsProviderFields(t *testing.T) {
	const provider = `{"id":"witem_2","properties":{"type":"podcast","url":"https://p","podcast":{"host":"Ann","episodes":12}},"score":0.7}`
	var it models.Item
	require.NoError(t, json.Unmarshal([]byte(provider), &it))

	path := filepath.Join(t.TempDir(), "raw_results.json")
	require.NoError(t, WriteRawItems(path, []models.Item{it}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "["+provider+"]", string(data))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "results/out.xlsx", SiblingPath("results/out.json", ".xlsx"))
	assert.Equal(t, "results/search.xlsx", SiblingPath("results/search.txt", ".xlsx"))
	assert.Equal(t, "noext.xlsx", SiblingPath("noext", ".xlsx"))
	assert.Equal(t, filepath.Join("results", "raw_out.json"), RawPath("results/out.json"))

	assert.Equal(t, FormatCSV, FormatFromPath("a.CSV"))
	assert.Equal(t, FormatXLSX, FormatFromPath("a.xlsx"))
	assert.Equal(t, FormatJSON, FormatFromPath("a.txt"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("tabular")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Results", SheetName("  "))
	assert.Equal(t, "a-b-c-d-e-(f)", SheetName(`a:b/c\d?e*[f]`))
	assert.Len(t, []rune(SheetName("Search Top AI research labs focusing on large language models")), 31)
}
