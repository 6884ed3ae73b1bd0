// Package venue extracts venue records from rendered map detail pages.
package venue

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pevans/venuefed/config"
)

// Field describes one record attribute: how to pull it out of a page and
// where it goes in the record. Each extraction returns nil when the element
// is missing or empty, never an error.
type Field struct {
	Key     string
	Extract func(doc *goquery.Document, sel config.Selectors) *string
	Assign  func(r *Record, v *string)
}

// Fields is the fixed list of attributes extracted from every page, in
// record order.
var Fields = []Field{
	{
		Key: "name",
		Extract: func(doc *goquery.Document, sel config.Selectors) *string {
			return textOf(doc, sel.Name)
		},
		Assign: func(r *Record, v *string) { r.Name = v },
	},
	{
		Key: "rating",
		Extract: func(doc *goquery.Document, sel config.Selectors) *string {
			return textOf(doc, sel.Rating)
		},
		Assign: func(r *Record, v *string) { r.Rating = v },
	},
	{
		Key: "location",
		Extract: func(doc *goquery.Document, sel config.Selectors) *string {
			return textOf(doc, sel.Location)
		},
		Assign: func(r *Record, v *string) { r.Location = v },
	},
	{
		Key: "image_formula",
		Extract: func(doc *goquery.Document, sel config.Selectors) *string {
			src := attrOf(doc, sel.Image, "src")
			if src == nil {
				return nil
			}
			return ImageFormula(*src)
		},
		Assign: func(r *Record, v *string) { r.ImageFormula = v },
	},
	{
		Key: "source_url",
		Extract: func(doc *goquery.Document, sel config.Selectors) *string {
			return attrOf(doc, sel.Website, "href")
		},
		Assign: func(r *Record, v *string) { r.SourceURL = v },
	},
}

// ParseRecord parses rendered page markup and extracts every field
// independently. Markup that can't be parsed yields an empty record.
func ParseRecord(html string, sel config.Selectors) Record {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Record{}
	}
	return ExtractRecord(doc, sel)
}

// ExtractRecord runs the field list against doc.
func ExtractRecord(doc *goquery.Document, sel config.Selectors) Record {
	var record Record
	for _, field := range Fields {
		field.Assign(&record, field.Extract(doc, sel))
	}
	return record
}

// textOf returns the whitespace-normalized text of the first match.
func textOf(doc *goquery.Document, selector string) *string {
	if selector == "" {
		return nil
	}

	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return nil
	}

	// Normalize whitespace: replace multiple spaces/newlines with single space
	text := strings.Join(strings.Fields(node.Text()), " ")
	if text == "" {
		return nil
	}
	return &text
}

// attrOf returns the trimmed attribute of the first match.
func attrOf(doc *goquery.Document, selector, attr string) *string {
	if selector == "" {
		return nil
	}

	value, ok := doc.Find(selector).First().Attr(attr)
	if !ok {
		return nil
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
