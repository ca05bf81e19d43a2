// Package reconcile maps extracted property fields back onto OCR fragment boxes.
package reconcile

import (
	"strings"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
)

// Reconcile emits one annotation per (property field, matching fragment) pair.
//
// Every field of every triple is matched independently against all fragments;
// every fragment scoring strictly above constants.MatchThreshold produces an
// annotation labeled with the field key. Output order follows triples, then
// fields (name, value, unit), then fragments.
func Reconcile(fragments []entity.TextFragment, triples []entity.PropertyTriple, imageW, imageH, pageIndex int) []entity.Annotation {
	if len(fragments) == 0 || len(triples) == 0 || imageW <= 0 || imageH <= 0 {
		return nil
	}

	var out []entity.Annotation
	for _, t := range triples {
		for _, f := range t.Fields() {
			needle := strings.TrimSpace(f.Text)
			if needle == "" {
				continue
			}
			for _, frag := range fragments {
				if Similarity(needle, frag.Text) <= constants.MatchThreshold {
					continue
				}
				out = append(out, entity.Annotation{
					Target:    constants.TargetRectangle,
					Shape:     ToShape(frag.BBox, imageW, imageH),
					Label:     f.Key,
					PageIndex: pageIndex,
				})
			}
		}
	}
	return out
}

// ToShape converts a pixel box to percent-of-image coordinates clamped to [0,100].
func ToShape(b entity.BBox, imageW, imageH int) entity.Shape {
	w, h := float64(imageW), float64(imageH)
	return entity.Shape{
		X:      clamp(100 * float64(b.X) / w),
		Y:      clamp(100 * float64(b.Y) / h),
		Width:  clamp(100 * float64(b.Width) / w),
		Height: clamp(100 * float64(b.Height) / h),
	}
}

func clamp(v float64) float64 {
	return max(0, min(100, v))
}
