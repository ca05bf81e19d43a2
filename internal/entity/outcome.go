package entity

import "github.com/joseph-ayodele/property-annotator/constants"

// PageOutcome reports what happened to one page during a run.
type PageOutcome struct {
	TaskIndex   int                  `json:"task_index"`
	PageIndex   int                  `json:"page_index"`
	URL         string               `json:"url"`
	Status      constants.PageStatus `json:"status"`
	Reason      string               `json:"reason,omitempty"`
	Properties  []PropertyTriple     `json:"properties,omitempty"`
	Annotations []Annotation         `json:"annotations,omitempty"`
}

func (o PageOutcome) OK() bool { return o.Status == constants.PageStatusOK }
