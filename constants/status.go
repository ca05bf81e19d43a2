package constants

// PageStatus is the canonical outcome of one page in a prediction run.
type PageStatus string

// Stable values (stored as-is in the run log).
const (
	PageStatusOK      PageStatus = "OK"      // OCR, extraction and reconciliation ran
	PageStatusSkipped PageStatus = "SKIPPED" // OCR failed; page contributes nothing
	PageStatusHalted  PageStatus = "HALTED"  // credentials exhausted before or during this page
)
