package entity

import "github.com/joseph-ayodele/property-annotator/constants"

// PropertyTriple is one technical property extracted from page text.
// Name and Value are non-empty; Unit may be empty.
type PropertyTriple struct {
	Name  string `json:"prop-name"`
	Value string `json:"prop-value"`
	Unit  string `json:"prop-unit"`
}

// Field is one matchable field of a triple, keyed by its field name.
type Field struct {
	Key  string
	Text string
}

// Fields returns name, value and unit in that order, keyed by their field names.
func (p PropertyTriple) Fields() []Field {
	return []Field{
		{Key: constants.FieldName, Text: p.Name},
		{Key: constants.FieldValue, Text: p.Value},
		{Key: constants.FieldUnit, Text: p.Unit},
	}
}
