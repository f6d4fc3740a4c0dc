package digest

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/duebot/pkg/models"
)

// SummaryTitle is the fallback title of the project status message.
const SummaryTitle = "Issue status"

const (
	warningThreshold = 5
	severeThreshold  = 10
)

// SeverityFor maps an expired count to a severity. Boundaries belong to the higher level.
func SeverityFor(expired int) models.Severity {
	switch {
	case expired >= severeThreshold:
		return models.Severe
	case expired >= warningThreshold:
		return models.Warning
	default:
		return models.Nominal
	}
}

// Aggregate fills in the severity of each summary from its expired count.
// The soon-due count never affects severity.
func Aggregate(summaries []models.ComponentSummary) []models.ComponentSummary {
	out := make([]models.ComponentSummary, len(summaries))
	for i, s := range summaries {
		s.Severity = SeverityFor(s.Expired)
		out[i] = s
	}
	return out
}

// RenderSummary renders the project status: a title line naming the project
// followed by one line per component.
func RenderSummary(project string, summaries []models.ComponentSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* issue status\n", project)
	for _, s := range summaries {
		fmt.Fprintf(&b, "%s *%s* (%s) expired *%d* due soon *%d*\n",
			s.Severity.Icon(), s.Label, s.Channel, s.Expired, s.Soon)
	}
	return b.String()
}
