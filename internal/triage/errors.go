package triage

import (
	"fmt"
	"strings"
)

// MalformedIssueError reports a tracker record missing fields required to build an Issue.
type MalformedIssueError struct {
	// Key is the record key, empty when the key itself was missing
	Key string

	// Missing names the absent fields
	Missing []string
}

func (e *MalformedIssueError) Error() string {
	key := e.Key
	if key == "" {
		key = "<no key>"
	}
	return fmt.Sprintf("malformed issue %s: missing %s", key, strings.Join(e.Missing, ", "))
}

// DirectoryUnavailableError reports that the member directory could not be fetched.
// Identity resolution degrades to "no handle" for the rest of the run.
type DirectoryUnavailableError struct {
	Err error
}

func (e *DirectoryUnavailableError) Error() string {
	return fmt.Sprintf("member directory unavailable: %v", e.Err)
}

func (e *DirectoryUnavailableError) Unwrap() error {
	return e.Err
}
