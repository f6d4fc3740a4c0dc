// Package digest renders issue lists and project summaries as chat messages.
package digest

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/danielolaszy/duebot/pkg/models"
)

// UnassignedMarker is appended to issues that have no assignee.
const UnassignedMarker = "(*unassigned*)"

// mentionHint explains how to get mentioned instead of listed by name.
const mentionHint = "> Set your tracker full name (<https://id.atlassian.com/manage-profile|profile and visibility>) " +
	"to match your chat full name to get mentioned (case is ignored)"

// Glyphs are the decorative faces appended to digest headers.
var Glyphs = []string{
	"┗┫￣皿￣┣┛",
	"┗┃￣□￣；┃┓ ",
	"┏┫￣皿￣┣┛",
	"┗┃・ ■ ・┃┛",
	"┗┫＝皿[＋]┣┛",
}

// Picker chooses an index in [0, n). *rand.Rand satisfies it.
type Picker interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// Composer builds digest messages.
type Composer struct {
	picker Picker
}

// NewComposer returns a Composer using picker for glyph selection.
// A nil picker falls back to the math/rand global source.
func NewComposer(picker Picker) *Composer {
	if picker == nil {
		picker = globalRand{}
	}
	return &Composer{picker: picker}
}

// FormatLine renders one issue as a digest line.
func FormatLine(issue models.Issue) string {
	return fmt.Sprintf("- %s <%s|%s>: %s %s", issue.DueDate, issue.URL, issue.Key, issue.Summary, assigneeSuffix(issue))
}

// assigneeSuffix prefers the chat mention, then the tracker name, then the marker.
func assigneeSuffix(issue models.Issue) string {
	switch {
	case issue.ChatHandle != "":
		return "(@" + issue.ChatHandle + ")"
	case issue.AssigneeName != "":
		return "(" + issue.AssigneeName + ")"
	default:
		return UnassignedMarker
	}
}

// Compose renders a header with the title and issue count, the mention hint,
// and one line per issue in input order.
func (c *Composer) Compose(title string, issues []models.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: *%s* %s\n", title, countLabel(len(issues)), c.glyph())
	b.WriteString(mentionHint)
	b.WriteString("\n")
	for _, issue := range issues {
		b.WriteString(FormatLine(issue))
		b.WriteString("\n")
	}
	return b.String()
}

func (c *Composer) glyph() string {
	i := c.picker.Intn(len(Glyphs))
	if i < 0 || i >= len(Glyphs) {
		i = 0
	}
	return Glyphs[i]
}

func countLabel(n int) string {
	if n == 1 {
		return "1 issue"
	}
	return fmt.Sprintf("%d issues", n)
}

// ExpiredTitle is the digest title for overdue issues of one route.
func ExpiredTitle(project, label string) string {
	return fmt.Sprintf("*%s/%s* expired issues", project, label)
}

// SoonTitle is the digest title for issues due within the horizon.
func SoonTitle(project, label string) string {
	return fmt.Sprintf("*%s/%s* issues due soon", project, label)
}
