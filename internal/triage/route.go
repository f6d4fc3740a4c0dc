package triage

import "github.com/danielolaszy/duebot/pkg/models"

// Route returns the issues whose components intersect the specifier, in input order.
// Issues without components never match. The same issue may be returned for
// several routes; nothing is deduplicated across them.
func Route(issues []models.Issue, spec models.ComponentSpec) []models.Issue {
	var routed []models.Issue
	for _, issue := range issues {
		if spec.Matches(issue.Components) {
			routed = append(routed, issue)
		}
	}
	return routed
}
