package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Funding report",
		Summary: []string{"Goal: 5000.00", "Raised: 5000.00"},
		Headers: []string{"supporter", "type", "amount"},
		Rows: []map[string]string{
			{"supporter": "alice", "type": "financial", "amount": "5000.00"},
			{"supporter": "bob", "type": "mentorship", "amount": "0.00"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := Render(FormatCSV, sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "supporter,type,amount\nalice,financial,5000.00\nbob,mentorship,0.00\n", string(out))
}

func TestPDFRender(t *testing.T) {
	out, err := Render(FormatPDF, sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := Render(FormatCSV, Dataset{})
	assert.Error(t, err)
	_, err = Render(FormatPDF, Dataset{})
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 60))
	assert.Equal(t, "abcdef...", truncate("abcdefghijklmnop", 18))
}

func TestCSVNeutralizesFormulaCells(t *testing.T) {
	out, err := Render(FormatCSV, Dataset{
		Headers: []string{"statement"},
		Rows:    []map[string]string{{"statement": "=HYPERLINK(\"x\")"}, {"statement": "-5 apples"}, {"statement": "plain"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "statement\n\"'=HYPERLINK(\"\"x\"\")\"\n'-5 apples\nplain\n", string(out))
}
