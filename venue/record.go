package venue

import (
	"fmt"
	"strings"
)

// Image sizing used in the spreadsheet formula: mode 4 (custom size) at
// 100x100 pixels.
const (
	ImageMode   = 4
	ImageHeight = 100
	ImageWidth  = 100
)

// Record holds the attributes extracted from one venue detail page. Any
// field may be nil when extraction failed; the record is still emitted.
type Record struct {
	Name     *string `json:"name"`
	Rating   *string `json:"rating"`
	Location *string `json:"location"`
	// ImageFormula is a spreadsheet formula embedding the venue photo, not
	// the raw image URL.
	ImageFormula *string `json:"image_formula"`
	// SourceURL is the venue's outbound website link.
	SourceURL *string `json:"source_url"`
}

// Empty reports whether no field was extracted.
func (r Record) Empty() bool {
	return r.Name == nil && r.Rating == nil && r.Location == nil &&
		r.ImageFormula == nil && r.SourceURL == nil
}

// Populated returns how many fields were extracted.
func (r Record) Populated() int {
	n := 0
	for _, v := range []*string{r.Name, r.Rating, r.Location, r.ImageFormula, r.SourceURL} {
		if v != nil {
			n++
		}
	}
	return n
}

// ImageFormula builds the =IMAGE(...) formula for imageURL. Returns nil for
// an empty URL so a missing image never turns into a malformed formula.
// Double quotes are doubled to keep the string literal well-formed.
func ImageFormula(imageURL string) *string {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil
	}

	escaped := strings.ReplaceAll(imageURL, `"`, `""`)
	formula := fmt.Sprintf(`=IMAGE("%s", %d, %d, %d)`, escaped, ImageMode, ImageHeight, ImageWidth)
	return &formula
}
