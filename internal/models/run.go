package models

import "time"

// RunResult describes one finished copy run, saved or ad hoc.
type RunResult struct {
	BuildID     string // Empty when the build was not saved
	Source      string
	Destination string
	Excluded    []string // Absolute paths skipped during the walk
	Cleared     bool
	Entries     int // Entries copied before success or failure
	Duration    time.Duration
	Err         error
}

// Success reports whether the run copied the whole tree
func (r RunResult) Success() bool {
	return r.Err == nil
}

// Name returns the build id, or a placeholder for unsaved builds
func (r RunResult) Name() string {
	if r.BuildID == "" {
		return "(unsaved)"
	}
	return r.BuildID
}
