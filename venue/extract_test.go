package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/venuefed/config"
)

const fullDetailPage = `<!doctype html>
<html><body>
  <h1 class="DUwDvf lfPIob">
    Grand   Hall
  </h1>
  <div class="LBgpqf"><div><span>4.7</span><span>(312)</span></div></div>
  <div class="rogA2c"><div class="Io6YTe">Strada Ismail 1, Chișinău</div></div>
  <div class="RZ66Rb FgCUCc"><button><img src="https://lh5.example.com/p/photo=w408-h272"></button></div>
  <a class="CsEnBe" href="https://grandhall.example.md/?a=1&amp;b=2">grandhall.example.md</a>
</body></html>`

// TestParseRecord_AllFields verifies every field is extracted
func TestParseRecord_AllFields(t *testing.T) {
	record := ParseRecord(fullDetailPage, config.DefaultSelectors())

	require.NotNil(t, record.Name)
	assert.Equal(t, "Grand Hall", *record.Name, "whitespace is normalized")
	require.NotNil(t, record.Rating)
	assert.Equal(t, "4.7", *record.Rating, "first span in the rating widget")
	require.NotNil(t, record.Location)
	assert.Equal(t, "Strada Ismail 1, Chișinău", *record.Location)
	require.NotNil(t, record.ImageFormula)
	assert.Equal(t, `=IMAGE("https://lh5.example.com/p/photo=w408-h272", 4, 100, 100)`, *record.ImageFormula)
	require.NotNil(t, record.SourceURL)
	assert.Equal(t, "https://grandhall.example.md/?a=1&b=2", *record.SourceURL)
	assert.Equal(t, 5, record.Populated())
}

// TestParseRecord_OnlyName verifies missing elements become nil fields
func TestParseRecord_OnlyName(t *testing.T) {
	html := `<html><body><h1 class="DUwDvf lfPIob">X</h1></body></html>`

	record := ParseRecord(html, config.DefaultSelectors())

	expected := Record{Name: strPtr("X")}
	assert.Equal(t, expected, record)
	assert.Nil(t, record.Rating)
	assert.Nil(t, record.Location)
	assert.Nil(t, record.ImageFormula)
	assert.Nil(t, record.SourceURL)
}

// TestParseRecord_EmptyPage verifies an empty page yields an empty record
func TestParseRecord_EmptyPage(t *testing.T) {
	record := ParseRecord("", config.DefaultSelectors())

	assert.True(t, record.Empty())
	assert.Equal(t, 0, record.Populated())
}

// TestParseRecord_MalformedElements verifies present-but-empty elements are
// treated as missing
func TestParseRecord_MalformedElements(t *testing.T) {
	html := `<html><body>
		<h1 class="DUwDvf lfPIob">   </h1>
		<div class="LBgpqf">no span here</div>
		<div class="RZ66Rb FgCUCc"><img alt="no src"></div>
		<a class="CsEnBe">no href</a>
		<div class="rogA2c">Somewhere</div>
	</body></html>`

	record := ParseRecord(html, config.DefaultSelectors())

	assert.Nil(t, record.Name)
	assert.Nil(t, record.Rating)
	assert.Nil(t, record.ImageFormula, "image without src must not produce a formula")
	assert.Nil(t, record.SourceURL)
	require.NotNil(t, record.Location)
	assert.Equal(t, "Somewhere", *record.Location)
}

// TestParseRecord_PartialClassMatch verifies the heading needs both classes
func TestParseRecord_PartialClassMatch(t *testing.T) {
	html := `<html><body><h1 class="DUwDvf">Only one class</h1></body></html>`

	record := ParseRecord(html, config.DefaultSelectors())

	assert.Nil(t, record.Name)
}

// TestParseRecord_CustomSelectors verifies selectors come from config
func TestParseRecord_CustomSelectors(t *testing.T) {
	sel := config.DefaultSelectors()
	sel.Name = "header .title"
	html := `<html><body><header><span class="title">Custom</span></header></body></html>`

	record := ParseRecord(html, sel)

	require.NotNil(t, record.Name)
	assert.Equal(t, "Custom", *record.Name)
}

// TestParseRecord_EmptySelectorSkipsField verifies a blank selector disables
// a field
func TestParseRecord_EmptySelectorSkipsField(t *testing.T) {
	sel := config.DefaultSelectors()
	sel.Website = ""

	record := ParseRecord(fullDetailPage, sel)

	assert.Nil(t, record.SourceURL)
	assert.NotNil(t, record.Name)
}

// TestFields_Order verifies the field list matches record order
func TestFields_Order(t *testing.T) {
	keys := make([]string, 0, len(Fields))
	for _, f := range Fields {
		keys = append(keys, f.Key)
	}

	assert.Equal(t, []string{"name", "rating", "location", "image_formula", "source_url"}, keys)
}

// TestImageFormula verifies the formula string and its edge cases
func TestImageFormula(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected *string
	}{
		{
			name:     "plain url",
			url:      "https://img.example.com/a.jpg",
			expected: strPtr(`=IMAGE("https://img.example.com/a.jpg", 4, 100, 100)`),
		},
		{
			name:     "surrounding whitespace",
			url:      "  https://img.example.com/a.jpg \n",
			expected: strPtr(`=IMAGE("https://img.example.com/a.jpg", 4, 100, 100)`),
		},
		{
			name:     "embedded quote",
			url:      `https://img.example.com/a"b.jpg`,
			expected: strPtr(`=IMAGE("https://img.example.com/a""b.jpg", 4, 100, 100)`),
		},
		{
			name:     "empty",
			url:      "",
			expected: nil,
		},
		{
			name:     "blank",
			url:      "   ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ImageFormula(tt.url))
		})
	}
}

func strPtr(s string) *string {
	return &s
}
