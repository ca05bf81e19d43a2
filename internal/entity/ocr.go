package entity

// BBox is a pixel-space box on a page image.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TextFragment is a single recognized text run. Text is trimmed and never empty.
type TextFragment struct {
	Text string `json:"text"`
	BBox BBox   `json:"bbox"`
}

// PageOCRResult is the OCR output for one page image.
type PageOCRResult struct {
	Fragments   []TextFragment `json:"fragments"`
	ImageWidth  int            `json:"image_width"`
	ImageHeight int            `json:"image_height"`
}

// Transcript joins the fragment texts in reading order, one per line.
func (r PageOCRResult) Transcript() string {
	if len(r.Fragments) == 0 {
		return ""
	}
	n := len(r.Fragments) - 1
	for _, f := range r.Fragments {
		n += len(f.Text)
	}
	buf := make([]byte, 0, n)
	for i, f := range r.Fragments {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, f.Text...)
	}
	return string(buf)
}
