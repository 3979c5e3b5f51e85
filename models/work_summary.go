package models

import (
	"fmt"
	"time"
)

// WorkSummary records when a commit attempt ran and what went wrong.
type WorkSummary struct {
	// This is set to true when the commit pipeline starts.
	Attempted bool

	// Errors is a list of strings describing errors that occurred
	// during the commit.
	Errors []string

	// StartedAt describes when the attempt started.
	// If StartedAt.IsZero(), we have not yet attempted the commit.
	StartedAt time.Time

	// FinishedAt describes when the attempt completed. Note that
	// the attempt may have completed without succeeding. Check the
	// Succeeded() method to see if it did.
	FinishedAt time.Time
}

func NewWorkSummary() *WorkSummary {
	return &WorkSummary{
		Errors: make([]string, 0),
	}
}

func (summary *WorkSummary) Start() {
	summary.Attempted = true
	summary.StartedAt = time.Now().UTC()
}

func (summary *WorkSummary) Finish() {
	summary.FinishedAt = time.Now().UTC()
}

func (summary *WorkSummary) Finished() bool {
	return !summary.FinishedAt.IsZero()
}

func (summary *WorkSummary) RunTime() time.Duration {
	startTime := summary.StartedAt
	if startTime.IsZero() {
		return time.Duration(0)
	}
	endTime := summary.FinishedAt
	if endTime.IsZero() {
		endTime = time.Now()
	}
	return endTime.Sub(startTime)
}

func (summary *WorkSummary) Succeeded() bool {
	return summary.Finished() && !summary.HasErrors()
}

func (summary *WorkSummary) AddError(format string, a ...interface{}) {
	summary.Errors = append(summary.Errors, fmt.Sprintf(format, a...))
}

func (summary *WorkSummary) HasErrors() bool {
	return len(summary.Errors) > 0
}

func (summary *WorkSummary) FirstError() string {
	firstError := ""
	if len(summary.Errors) > 0 {
		firstError = summary.Errors[0]
	}
	return firstError
}
