package entity

import (
	"time"

	"github.com/joseph-ayodele/property-annotator/constants"
)

// PageRecord is one stored page outcome of a prediction run.
type PageRecord struct {
	ID              int64                `json:"id"`
	RunID           string               `json:"run_id"`
	TaskIndex       int                  `json:"task_index"`
	PageIndex       int                  `json:"page_index"`
	URL             string               `json:"url"`
	Status          constants.PageStatus `json:"status"`
	Reason          string               `json:"reason,omitempty"`
	PropertyCount   int                  `json:"property_count"`
	AnnotationCount int                  `json:"annotation_count"`
	Properties      []PropertyTriple     `json:"properties"`
	CreatedAt       time.Time            `json:"created_at"`
}

// RunSummary aggregates the stored pages of one run.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	Pages       int       `json:"pages"`
	OK          int       `json:"ok"`
	Skipped     int       `json:"skipped"`
	Halted      int       `json:"halted"`
	Annotations int       `json:"annotations"`
	StartedAt   time.Time `json:"started_at"`
}
