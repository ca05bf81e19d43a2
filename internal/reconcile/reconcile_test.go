package reconcile

import (
	"testing"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"5000", "5000"},
		{"Battery", "battery"},
		{"mAh", "5000mAh"},
		{"Screen size", "screen"},
		{"abc", "xyz"},
		{"", "abc"},
		{"", ""},
		{"Größe", "grösse"},
	}
	for _, tt := range tests {
		ab := Similarity(tt.a, tt.b)
		ba := Similarity(tt.b, tt.a)
		if ab != ba {
			t.Errorf("Similarity(%q,%q)=%v but reversed=%v", tt.a, tt.b, ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("Similarity(%q,%q)=%v out of range", tt.a, tt.b, ab)
		}
	}
	if got := Similarity("Battery", "BATTERY"); got != 1 {
		t.Errorf("case-folded identical strings: got %v, want 1", got)
	}
	if got := Similarity("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings: got %v, want 0", got)
	}
	// 2*4/(4+5)
	if got, want := Similarity("5000", "5000."), 8.0/9.0; got != want {
		t.Errorf("Similarity(5000, 5000.) = %v, want %v", got, want)
	}
}

func TestToShapeFullBox(t *testing.T) {
	got := ToShape(entity.BBox{X: 0, Y: 0, Width: 640, Height: 480}, 640, 480)
	want := entity.Shape{X: 0, Y: 0, Width: 100, Height: 100}
	if got != want {
		t.Fatalf("ToShape() = %+v, want %+v", got, want)
	}
}

func TestToShapeClamps(t *testing.T) {
	got := ToShape(entity.BBox{X: -5, Y: 90, Width: 120, Height: 30}, 100, 100)
	want := entity.Shape{X: 0, Y: 90, Width: 100, Height: 30}
	if got != want {
		t.Fatalf("ToShape() = %+v, want %+v", got, want)
	}
}

func TestReconcileSingleMatch(t *testing.T) {
	frags := []entity.TextFragment{{Text: "5000", BBox: entity.BBox{X: 10, Y: 20, Width: 30, Height: 8}}}
	triples := []entity.PropertyTriple{{Name: "Battery", Value: "5000", Unit: "mAh"}}

	got := Reconcile(frags, triples, 1000, 500, 0)
	if len(got) != 1 {
		t.Fatalf("Reconcile() returned %d annotations, want 1: %+v", len(got), got)
	}
	a := got[0]
	if a.Label != constants.FieldValue {
		t.Errorf("Label = %q, want %q", a.Label, constants.FieldValue)
	}
	want := entity.Shape{X: 1.0, Y: 4.0, Width: 3.0, Height: 1.6}
	if a.Shape != want {
		t.Errorf("Shape = %+v, want %+v", a.Shape, want)
	}
	if a.PageIndex != 0 || a.Target != constants.TargetRectangle {
		t.Errorf("unexpected annotation metadata: %+v", a)
	}
}

func TestReconcileMultiMatch(t *testing.T) {
	frags := []entity.TextFragment{
		{Text: "220V", BBox: entity.BBox{X: 10, Y: 10, Width: 20, Height: 10}},
		{Text: "unrelated", BBox: entity.BBox{X: 50, Y: 50, Width: 20, Height: 10}},
		{Text: "220v", BBox: entity.BBox{X: 70, Y: 80, Width: 20, Height: 10}},
	}
	triples := []entity.PropertyTriple{{Name: "Voltage", Value: "220V"}}

	got := Reconcile(frags, triples, 100, 100, 3)
	if len(got) != 2 {
		t.Fatalf("Reconcile() returned %d annotations, want 2: %+v", len(got), got)
	}
	for _, a := range got {
		if a.Label != constants.FieldValue {
			t.Errorf("Label = %q, want %q", a.Label, constants.FieldValue)
		}
		if a.PageIndex != 3 {
			t.Errorf("PageIndex = %d, want 3", a.PageIndex)
		}
	}
	if got[0].Shape == got[1].Shape {
		t.Errorf("expected distinct boxes, both %+v", got[0].Shape)
	}
}

func TestReconcileThresholdIsExclusive(t *testing.T) {
	// "abcd" vs "abcde": 2*4/9 = 0.888 matches; "abcd" vs "abcdef": 2*4/10 = 0.8 does not.
	frags := []entity.TextFragment{
		{Text: "abcdef", BBox: entity.BBox{Width: 1, Height: 1}},
		{Text: "abcde", BBox: entity.BBox{X: 5, Width: 1, Height: 1}},
	}
	got := Reconcile(frags, []entity.PropertyTriple{{Name: "zz", Value: "abcd"}}, 10, 10, 0)
	if len(got) != 1 {
		t.Fatalf("Reconcile() returned %d annotations, want 1: %+v", len(got), got)
	}
	if got[0].Shape.X != 50 {
		t.Errorf("matched the wrong fragment: %+v", got[0])
	}
}

func TestReconcileLabelsEachField(t *testing.T) {
	frags := []entity.TextFragment{
		{Text: "Battery", BBox: entity.BBox{X: 1, Width: 1, Height: 1}},
		{Text: "5000", BBox: entity.BBox{X: 2, Width: 1, Height: 1}},
		{Text: "mAh", BBox: entity.BBox{X: 3, Width: 1, Height: 1}},
	}
	got := Reconcile(frags, []entity.PropertyTriple{{Name: "Battery", Value: "5000", Unit: "mAh"}}, 10, 10, 1)
	want := []string{constants.FieldName, constants.FieldValue, constants.FieldUnit}
	if len(got) != len(want) {
		t.Fatalf("Reconcile() returned %d annotations, want %d: %+v", len(got), len(want), got)
	}
	for i, label := range want {
		if got[i].Label != label {
			t.Errorf("annotation %d label = %q, want %q", i, got[i].Label, label)
		}
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	triples := []entity.PropertyTriple{{Name: "Battery", Value: "5000"}}
	if got := Reconcile(nil, triples, 100, 100, 0); len(got) != 0 {
		t.Errorf("no fragments: got %d annotations", len(got))
	}
	frags := []entity.TextFragment{{Text: "5000", BBox: entity.BBox{Width: 1, Height: 1}}}
	if got := Reconcile(frags, nil, 100, 100, 0); len(got) != 0 {
		t.Errorf("no triples: got %d annotations", len(got))
	}
	if got := Reconcile(frags, triples, 0, 100, 0); len(got) != 0 {
		t.Errorf("zero width image: got %d annotations", len(got))
	}
	// empty unit never matches anything
	if got := Reconcile([]entity.TextFragment{{Text: "x", BBox: entity.BBox{Width: 1, Height: 1}}},
		[]entity.PropertyTriple{{Name: "n", Value: "v", Unit: "  "}}, 10, 10, 0); len(got) != 0 {
		t.Errorf("blank unit matched: %+v", got)
	}
}

func TestReconcileEmptyValueStillLabelsNameAndUnit(t *testing.T) {
	frags := []entity.TextFragment{
		{Text: "Battery", BBox: entity.BBox{X: 1, Width: 1, Height: 1}},
		{Text: "mAh", BBox: entity.BBox{X: 3, Width: 1, Height: 1}},
	}
	got := Reconcile(frags, []entity.PropertyTriple{{Name: "Battery", Value: "", Unit: "mAh"}}, 10, 10, 0)
	want := []string{constants.FieldName, constants.FieldUnit}
	if len(got) != len(want) {
		t.Fatalf("Reconcile() returned %d annotations, want %d: %+v", len(got), len(want), got)
	}
	for i, label := range want {
		if got[i].Label != label {
			t.Errorf("annotation %d label = %q, want %q", i, got[i].Label, label)
		}
	}
}
