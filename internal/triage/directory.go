// Package triage turns raw tracker records into issues and routes them by component.
package triage

import (
	"strings"

	"github.com/danielolaszy/duebot/pkg/models"
)

// Directory maps lower-cased display names to chat handles.
type Directory map[string]string

// BuildDirectory indexes members by lower-cased display name.
// Members without a display name or handle are skipped; a later duplicate wins.
func BuildDirectory(members []models.Member) Directory {
	dir := make(Directory, len(members))
	for _, m := range members {
		if m.DisplayName == "" || m.Handle == "" {
			continue
		}
		dir[strings.ToLower(m.DisplayName)] = m.Handle
	}
	return dir
}

// Resolve looks up the chat handle for a tracker display name, ignoring case.
// Directory keys are expected to be lower-cased already.
func Resolve(displayName string, dir Directory) (string, bool) {
	if displayName == "" {
		return "", false
	}
	handle, ok := dir[strings.ToLower(displayName)]
	if !ok || handle == "" {
		return "", false
	}
	return handle, true
}
