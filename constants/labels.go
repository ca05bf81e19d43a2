package constants

// Property record keys expected from the oracle. They double as rectangle labels.
const (
	FieldName  = "prop-name"
	FieldValue = "prop-value"
	FieldUnit  = "prop-unit"
)

// PropertyFields lists the matchable fields of a property triple in emission order.
var PropertyFields = []string{FieldName, FieldValue, FieldUnit}

// Label Studio control names used by the annotation project.
const (
	FromName        = "rectangles"
	ToName          = "pdf"
	ResultType      = "rectanglelabels"
	TargetRectangle = "rectangle-label"
)

// MatchThreshold is the exclusive similarity boundary for a fragment to count as a match.
const MatchThreshold = 0.8

// DefaultModelVersion is reported with every prediction unless MODEL_VERSION overrides it.
const DefaultModelVersion = "1.1.0"
