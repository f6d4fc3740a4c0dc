package triage

import (
	"errors"

	"github.com/danielolaszy/duebot/pkg/models"
)

// Normalize validates a raw record and converts it into an Issue.
// Key, summary and status are required; a record lacking any of them
// yields a *MalformedIssueError.
func Normalize(raw models.RawIssue, dir Directory) (models.Issue, error) {
	var missing []string
	if raw.Key == "" {
		missing = append(missing, "key")
	}
	if raw.Summary == nil {
		missing = append(missing, "summary")
	}
	if raw.Status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return models.Issue{}, &MalformedIssueError{Key: raw.Key, Missing: missing}
	}

	components := make(map[string]struct{}, len(raw.Components))
	for _, name := range raw.Components {
		if name == "" {
			continue
		}
		components[name] = struct{}{}
	}

	issue := models.Issue{
		Key:        raw.Key,
		URL:        raw.URL,
		Summary:    *raw.Summary,
		Created:    raw.Created,
		Updated:    raw.Updated,
		DueDate:    raw.DueDate,
		Priority:   raw.Priority,
		Status:     raw.Status,
		Components: components,
	}

	if raw.Assignee != nil && *raw.Assignee != "" {
		issue.AssigneeName = *raw.Assignee
		if handle, ok := Resolve(issue.AssigneeName, dir); ok {
			issue.ChatHandle = handle
		}
	}

	return issue, nil
}

// Classify normalizes the expired and soon-due query results, keeping input order.
// Malformed records are left out of the lists and reported together in the
// returned error; every well-formed record is still returned.
func Classify(expiredRaw, soonRaw []models.RawIssue, dir Directory) ([]models.Issue, []models.Issue, error) {
	expired, errExpired := normalizeAll(expiredRaw, dir)
	soon, errSoon := normalizeAll(soonRaw, dir)
	return expired, soon, errors.Join(errExpired, errSoon)
}

func normalizeAll(raws []models.RawIssue, dir Directory) ([]models.Issue, error) {
	issues := make([]models.Issue, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		issue, err := Normalize(raw, dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		issues = append(issues, issue)
	}
	return issues, errors.Join(errs...)
}

// MalformedErrors unpacks the per-record errors joined by Classify.
func MalformedErrors(err error) []*MalformedIssueError {
	if err == nil {
		return nil
	}
	var out []*MalformedIssueError
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var malformed *MalformedIssueError
		if errors.As(e, &malformed) {
			out = append(out, malformed)
		}
	}
	walk(err)
	return out
}
