// Package models defines data structures shared across the application.
package models

import (
	"sort"
	"strings"
)

// RawIssue is one issue record as returned by the tracker, before validation.
// Pointer fields distinguish an absent value from an empty one.
type RawIssue struct {
	// Key is the tracker identifier (e.g., "ISSHA-123"); empty when absent
	Key string

	// URL is the permalink of the issue
	URL string

	// Summary is nil when the tracker omitted the field
	Summary *string

	Created  string
	Updated  string
	DueDate  string
	Priority string

	// Status is the workflow status name; empty when absent
	Status string

	// Components lists the component names attached to the issue
	Components []string

	// Assignee is the assignee display name, nil when unassigned
	Assignee *string
}

// Issue is the canonical, validated form of a tracker issue.
// Values are built once by the normalizer and never modified afterwards.
type Issue struct {
	Key      string
	URL      string
	Summary  string
	Created  string
	Updated  string
	DueDate  string
	Priority string
	Status   string

	// Components is the set of component names; empty when the issue has none
	Components map[string]struct{}

	// AssigneeName is empty when the issue is unassigned
	AssigneeName string

	// ChatHandle is set only when AssigneeName resolved against the member directory
	ChatHandle string
}

// HasComponent reports whether the issue carries the named component.
func (i Issue) HasComponent(name string) bool {
	_, ok := i.Components[name]
	return ok
}

// ComponentNames returns the issue's components in sorted order.
func (i Issue) ComponentNames() []string {
	names := make([]string, 0, len(i.Components))
	for name := range i.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Member is one entry of the chat platform's member directory.
type Member struct {
	// DisplayName is the full name shown to other members
	DisplayName string

	// Handle is the name used to mention the member
	Handle string
}

// SpecKind tells the two forms of a component specifier apart.
type SpecKind int

const (
	// Single matches one component name.
	Single SpecKind = iota
	// AnyOf matches any of a set of aliased component names.
	AnyOf
)

// ComponentSpec selects issues by component. Both forms are kept as a set.
type ComponentSpec struct {
	kind  SpecKind
	names []string
	set   map[string]struct{}
}

// SingleComponent returns a specifier matching exactly one component name.
func SingleComponent(name string) ComponentSpec {
	return ComponentSpec{
		kind:  Single,
		names: []string{name},
		set:   map[string]struct{}{name: {}},
	}
}

// AnyOfComponents returns a specifier matching any of the given names.
// Duplicate names are collapsed; declaration order is kept for display.
func AnyOfComponents(names ...string) ComponentSpec {
	spec := ComponentSpec{kind: AnyOf, set: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if _, seen := spec.set[name]; seen {
			continue
		}
		spec.set[name] = struct{}{}
		spec.names = append(spec.names, name)
	}
	return spec
}

// Kind returns which form the specifier was declared with.
func (s ComponentSpec) Kind() SpecKind {
	return s.kind
}

// Names returns the component names in declaration order.
func (s ComponentSpec) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Matches reports whether any of the given component names is in the specifier set.
func (s ComponentSpec) Matches(components map[string]struct{}) bool {
	for name := range components {
		if _, ok := s.set[name]; ok {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the specifier names no component at all.
func (s ComponentSpec) IsEmpty() bool {
	return len(s.set) == 0
}

// Label returns the display label: the single name, or the aliases joined by ", ".
func (s ComponentSpec) Label() string {
	return strings.Join(s.names, ", ")
}

// ComponentRoute pairs a component specifier with the channel that receives its digests.
type ComponentRoute struct {
	Spec    ComponentSpec
	Channel string

	// Label overrides the specifier's own label in titles and summaries
	Label string
}

// DisplayLabel returns the configured label, or the specifier label when none is set.
func (r ComponentRoute) DisplayLabel() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Spec.Label()
}

// ProjectConfig describes one tracker project and where its notifications go.
type ProjectConfig struct {
	// ID is the tracker project key (e.g., "ISSHA")
	ID string

	// Routes are processed in declaration order
	Routes []ComponentRoute

	// MainChannel receives the project-wide status summary
	MainChannel string
}

// Bucket is the urgency partition an issue was fetched under.
type Bucket int

const (
	// Expired issues are past their due date.
	Expired Bucket = iota
	// SoonDue issues are due within the configured horizon.
	SoonDue
)

// String returns a short name for logging.
func (b Bucket) String() string {
	switch b {
	case Expired:
		return "expired"
	case SoonDue:
		return "soon"
	default:
		return "unknown"
	}
}

// IssueQuery describes one tracker search: a project and an urgency bucket.
type IssueQuery struct {
	Project string
	Bucket  Bucket

	// HorizonDays bounds the SoonDue bucket
	HorizonDays int

	// Statuses restricts the search to open workflow states
	Statuses []string
}

// Severity is the three-level ladder derived from a component's expired count.
type Severity int

const (
	Nominal Severity = iota
	Warning
	Severe
)

// Icon returns the chat emoji shown for the severity.
func (s Severity) Icon() string {
	switch s {
	case Severe:
		return ":umbrella:"
	case Warning:
		return ":cloud:"
	default:
		return ":sunny:"
	}
}

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case Severe:
		return "severe"
	case Warning:
		return "warning"
	default:
		return "nominal"
	}
}

// ComponentSummary holds the per-route counts for one project run.
type ComponentSummary struct {
	Label    string
	Channel  string
	Expired  int
	Soon     int
	Severity Severity
}
