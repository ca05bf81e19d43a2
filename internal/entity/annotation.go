package entity

import (
	"encoding/json"

	"github.com/joseph-ayodele/property-annotator/constants"
)

// Shape is a box in percent of the image dimensions.
type Shape struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// Annotation is one labeled rectangle on one page.
type Annotation struct {
	Target    string
	Shape     Shape
	Label     string
	PageIndex int
}

type annotationValue struct {
	Shape
	RectangleLabels []string `json:"rectanglelabels"`
}

type annotationWire struct {
	FromName  string          `json:"from_name"`
	ToName    string          `json:"to_name"`
	Type      string          `json:"type"`
	ItemIndex int             `json:"item_index"`
	Value     annotationValue `json:"value"`
}

// MarshalJSON writes the labeling tool's rectangle result shape.
func (a Annotation) MarshalJSON() ([]byte, error) {
	return json.Marshal(annotationWire{
		FromName:  constants.FromName,
		ToName:    constants.ToName,
		Type:      constants.ResultType,
		ItemIndex: a.PageIndex,
		Value: annotationValue{
			Shape:           a.Shape,
			RectangleLabels: []string{a.Label},
		},
	})
}

// UnmarshalJSON reads the labeling tool's rectangle result shape.
func (a *Annotation) UnmarshalJSON(b []byte) error {
	var w annotationWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	a.Target = constants.TargetRectangle
	a.Shape = w.Value.Shape
	a.PageIndex = w.ItemIndex
	a.Label = ""
	if len(w.Value.RectangleLabels) > 0 {
		a.Label = w.Value.RectangleLabels[0]
	}
	return nil
}

// PageResult holds the annotations produced for a single page.
type PageResult struct {
	PageIndex   int          `json:"page_index"`
	Annotations []Annotation `json:"annotations"`
}

// TaskResult is the flat per-task prediction. Page index travels on each annotation.
type TaskResult struct {
	ModelVersion string       `json:"model_version"`
	Annotations  []Annotation `json:"result"`
}
