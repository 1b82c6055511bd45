package model

import (
	"sort"
	"strings"
)

// FeatureKind distinguishes attributes from methods.
type FeatureKind string

const (
	KindAttribute FeatureKind = "attribute"
	KindMethod    FeatureKind = "method"
)

// Relationship kinds as they appear in class diagrams.
const (
	RelInheritance = "inheritance"
	RelComposition = "composition"
	RelAggregation = "aggregation"
	RelAssociation = "association"
)

// Feature is a single declared member of a class. The raw declaration
// (visibility prefix included) doubles as the feature's identity.
type Feature struct {
	Visibility string      `json:"visibility"` // "+", "-", "#" or "~"
	Name       string      `json:"name"`
	Kind       FeatureKind `json:"kind"`
	Declared   string      `json:"declared"` // e.g. "+login(): boolean"
}

// Signature returns the canonical identity string for the feature.
// Two features are the same iff their signatures are equal.
func (f Feature) Signature() string {
	return NormalizeSignature(f.Declared)
}

// ParseFeature builds a Feature from a member declaration line.
func ParseFeature(decl string) Feature {
	decl = strings.TrimSpace(decl)
	vis := ""
	rest := decl
	if len(decl) > 0 && strings.ContainsAny(decl[:1], "+-#~") {
		vis = decl[:1]
		rest = strings.TrimSpace(decl[1:])
	}

	kind := KindAttribute
	if strings.Contains(rest, "(") {
		kind = KindMethod
	}

	name := rest
	if i := strings.IndexAny(rest, "(:"); i >= 0 {
		name = strings.TrimSpace(rest[:i])
	}

	return Feature{
		Visibility: vis,
		Name:       name,
		Kind:       kind,
		Declared:   decl,
	}
}

// NormalizeSignature collapses internal whitespace so "+ id : int" and
// "+id:int" agree. Any string compared against a Signature must pass
// through here first.
func NormalizeSignature(decl string) string {
	return strings.Join(strings.Fields(decl), "")
}

// Class is a named set of features plus inheritance parents.
type Class struct {
	Name     string    `json:"name"`
	Features []Feature `json:"features"`
	Parents  []string  `json:"parents,omitempty"`
	Abstract bool      `json:"abstract,omitempty"`
}

// FeatureSet returns the class's own declared feature signatures.
func (c *Class) FeatureSet() map[string]bool {
	set := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		set[f.Signature()] = true
	}
	return set
}

// HasFeature reports whether the class itself declares the signature.
// The argument may use any spacing.
func (c *Class) HasFeature(sig string) bool {
	sig = NormalizeSignature(sig)
	for _, f := range c.Features {
		if f.Signature() == sig {
			return true
		}
	}
	return false
}

// RemoveFeature drops the feature with the given signature, preserving
// declaration order of the rest. Returns true if something was removed.
func (c *Class) RemoveFeature(sig string) bool {
	sig = NormalizeSignature(sig)
	kept := c.Features[:0]
	removed := false
	for _, f := range c.Features {
		if f.Signature() == sig {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	c.Features = kept
	return removed
}

// Relationship is a directed edge between two classes.
type Relationship struct {
	Source            string `json:"source"`
	Target            string `json:"target"`
	Kind              string `json:"kind"`
	CardinalitySource string `json:"cardinality_source,omitempty"`
	CardinalityTarget string `json:"cardinality_target,omitempty"`
	Label             string `json:"label,omitempty"`
}

// ClassModel is the mutable diagram model the pipeline reads and rewrites.
type ClassModel struct {
	Classes       []*Class       `json:"classes"`
	Relationships []Relationship `json:"relationships"`

	byName map[string]*Class
}

// NewClassModel creates an empty model.
func NewClassModel() *ClassModel {
	return &ClassModel{byName: make(map[string]*Class)}
}

// AddClass registers a class. A class with the same name replaces the
// earlier definition, matching last-writer-wins parse semantics.
func (m *ClassModel) AddClass(c *Class) {
	if c == nil {
		return
	}
	if m.byName == nil {
		m.RebuildIndex()
	}
	if old, ok := m.byName[c.Name]; ok {
		for i, existing := range m.Classes {
			if existing == old {
				m.Classes[i] = c
				break
			}
		}
	} else {
		m.Classes = append(m.Classes, c)
	}
	m.byName[c.Name] = c
}

// ByName looks a class up by its unique name.
func (m *ClassModel) ByName(name string) (*Class, bool) {
	if m.byName == nil {
		m.RebuildIndex()
	}
	c, ok := m.byName[name]
	return c, ok
}

// RebuildIndex recomputes the name lookup after bulk modifications.
func (m *ClassModel) RebuildIndex() {
	m.byName = make(map[string]*Class, len(m.Classes))
	for _, c := range m.Classes {
		m.byName[c.Name] = c
	}
}

// AddRelationship appends a relationship edge.
func (m *ClassModel) AddRelationship(r Relationship) {
	m.Relationships = append(m.Relationships, r)
}

// ClassNames returns all class names in sorted order.
func (m *ClassModel) ClassNames() []string {
	names := make([]string, 0, len(m.Classes))
	for _, c := range m.Classes {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// Ancestors returns the transitive inheritance ancestors of the class,
// cycle-safe. The returned order is breadth-first and deterministic.
func (m *ClassModel) Ancestors(name string) []*Class {
	var out []*Class
	visited := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		c, ok := m.ByName(current)
		if !ok {
			continue
		}
		parents := append([]string(nil), c.Parents...)
		sort.Strings(parents)
		for _, p := range parents {
			if visited[p] {
				continue
			}
			visited[p] = true
			if parent, ok := m.ByName(p); ok {
				out = append(out, parent)
				queue = append(queue, p)
			}
		}
	}
	return out
}

// InheritedFeatureSet returns the union of feature signatures declared
// by all transitive ancestors of the class.
func (m *ClassModel) InheritedFeatureSet(name string) map[string]bool {
	set := make(map[string]bool)
	for _, ancestor := range m.Ancestors(name) {
		for _, f := range ancestor.Features {
			set[f.Signature()] = true
		}
	}
	return set
}
