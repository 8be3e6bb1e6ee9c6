package models

import "time"

// ProcessingResult is returned by every batch entry point. Failures are
// reported through Errors rather than raised; a total batch failure has
// TotalProcessed 0 and a descriptive error string.
type ProcessingResult struct {
	RunID           string        `json:"run_id"`
	TotalProcessed  int           `json:"total_processed"`
	ClustersCreated int           `json:"clusters_created"`
	ItemsModified   int           `json:"items_modified"`
	ProcessingTime  time.Duration `json:"processing_time_ns"`
	Errors          []string      `json:"errors"`
}

// Success reports whether the batch completed without any recorded errors.
func (r *ProcessingResult) Success() bool {
	return len(r.Errors) == 0
}

// AddError records a failure message on the result.
func (r *ProcessingResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}
