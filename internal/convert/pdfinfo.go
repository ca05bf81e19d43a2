package convert

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageCount reads the number of pages from the PDF structure.
func PageCount(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}
