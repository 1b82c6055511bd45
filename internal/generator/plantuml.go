// Package generator serializes a class model back to PlantUML source.
package generator

import (
	"fmt"
	"os"
	"strings"

	"abstractor/internal/model"

	"github.com/cockroachdb/errors"
)

// relation symbols in canonical source-to-target direction.
var symbolByKind = map[string]string{
	model.RelInheritance: "--|>",
	model.RelComposition: "--*",
	model.RelAggregation: "--o",
	model.RelAssociation: "-->",
}

// Generator writes one diagram at a time. Zero value is ready to use.
type Generator struct {
	lines []string
}

func New() *Generator {
	return &Generator{}
}

// Generate renders the model as PlantUML text, abstract classes first
// so generated structure is visible at the top of the diagram.
func (g *Generator) Generate(m *model.ClassModel) string {
	g.lines = g.lines[:0]

	g.add("@startuml")
	g.add("")

	abstracts, concretes := splitClasses(m)
	if len(abstracts) > 0 {
		g.add("' Abstract Classes (Generated)")
		for _, cls := range abstracts {
			g.writeClass(cls)
		}
		g.add("")
	}

	g.add("' Classes")
	for _, cls := range concretes {
		g.writeClass(cls)
	}
	g.add("")

	if len(m.Relationships) > 0 {
		g.add("' Relationships")
		for _, rel := range m.Relationships {
			g.writeRelationship(rel)
		}
		g.add("")
	}

	g.add("@enduml")
	return strings.Join(g.lines, "\n") + "\n"
}

// WriteFile renders the model and saves it to path.
func (g *Generator) WriteFile(m *model.ClassModel, path string) error {
	content := g.Generate(m)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "write diagram %s", path)
	}
	return nil
}

func (g *Generator) writeClass(cls *model.Class) {
	keyword := "class"
	if cls.Abstract {
		keyword = "abstract class"
	}
	if len(cls.Features) == 0 {
		g.add(fmt.Sprintf("%s %s {", keyword, cls.Name))
		g.add("}")
		return
	}
	g.add(fmt.Sprintf("%s %s {", keyword, cls.Name))
	for _, f := range cls.Features {
		// Emit the declaration as written, not the normalized
		// signature, so spacing survives a parse/generate round trip.
		g.add("  " + f.Declared)
	}
	g.add("}")
}

func (g *Generator) writeRelationship(rel model.Relationship) {
	symbol, ok := symbolByKind[rel.Kind]
	if !ok {
		symbol = "-->"
	}

	parts := []string{rel.Source}
	if rel.CardinalitySource != "" {
		parts = append(parts, fmt.Sprintf("%q", rel.CardinalitySource))
	}
	parts = append(parts, symbol)
	if rel.CardinalityTarget != "" {
		parts = append(parts, fmt.Sprintf("%q", rel.CardinalityTarget))
	}
	parts = append(parts, rel.Target)

	line := strings.Join(parts, " ")
	if rel.Label != "" {
		line += " : " + rel.Label
	}
	g.add(line)
}

func (g *Generator) add(line string) {
	g.lines = append(g.lines, line)
}

// splitClasses preserves model order within each group.
func splitClasses(m *model.ClassModel) (abstracts, concretes []*model.Class) {
	for _, cls := range m.Classes {
		if cls.Abstract {
			abstracts = append(abstracts, cls)
		} else {
			concretes = append(concretes, cls)
		}
	}
	return abstracts, concretes
}
