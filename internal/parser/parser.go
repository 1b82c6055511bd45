// Package parser turns PlantUML class-diagram source into a ClassModel.
package parser

import (
	"os"
	"regexp"
	"strings"

	"abstractor/internal/model"

	"github.com/cockroachdb/errors"
)

var (
	classDeclRe = regexp.MustCompile(`^(abstract\s+)?class\s+([A-Za-z_][A-Za-z0-9_]*)`)
	sourceRe    = regexp.MustCompile(`^(\w+)(?:\s+"([^"]+)")?$`)
	targetRe    = regexp.MustCompile(`^(?:"([^"]+)"\s+)?(\w+)(?:\s*:\s*(?:"([^"]+)"|(.+)))?$`)
)

// relation symbols in match order: the more specific arrows first so
// "-->" is not swallowed by the bare "--" association.
var relationSymbols = []struct {
	symbol   string
	kind     string
	reversed bool // true when the left side is the parent/whole
}{
	{"--|>", model.RelInheritance, false},
	{"<|--", model.RelInheritance, true},
	{"--*", model.RelComposition, false},
	{"*--", model.RelComposition, true},
	{"--o", model.RelAggregation, false},
	{"o--", model.RelAggregation, true},
	{"-->", model.RelAssociation, false},
	{"<--", model.RelAssociation, true},
	{"--", model.RelAssociation, false},
}

// Parser builds ClassModels from diagram source text.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// ParseFile reads and parses a .puml file.
func (p *Parser) ParseFile(path string) (*model.ClassModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read diagram %s", path)
	}
	return p.Parse(string(data))
}

// Parse extracts classes, members and relationships from diagram text.
func (p *Parser) Parse(content string) (*model.ClassModel, error) {
	m := model.NewClassModel()
	var current *model.Class

	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		if line == "" || strings.HasPrefix(line, "'") || strings.HasPrefix(line, "@") {
			continue
		}

		if match := classDeclRe.FindStringSubmatch(line); match != nil {
			current = &model.Class{
				Name:     match[2],
				Abstract: match[1] != "",
			}
			m.AddClass(current)
			if !strings.Contains(line, "{") {
				current = nil
			}
			continue
		}

		if line == "}" {
			current = nil
			continue
		}

		if current != nil && strings.ContainsAny(line[:1], "+-#~") {
			current.Features = append(current.Features, model.ParseFeature(line))
			continue
		}

		if containsRelation(line) {
			if err := p.parseRelationship(m, line); err != nil {
				return nil, errors.Wrapf(err, "line %d", i+1)
			}
		}
	}

	wireInheritance(m)
	return m, nil
}

func containsRelation(line string) bool {
	for _, rel := range relationSymbols {
		if strings.Contains(line, rel.symbol) {
			return true
		}
	}
	return false
}

func (p *Parser) parseRelationship(m *model.ClassModel, line string) error {
	for _, rel := range relationSymbols {
		idx := strings.Index(line, rel.symbol)
		if idx < 0 {
			continue
		}

		left := strings.TrimSpace(line[:idx])
		right := strings.TrimSpace(line[idx+len(rel.symbol):])

		srcMatch := sourceRe.FindStringSubmatch(left)
		if srcMatch == nil {
			return errors.Newf("unparseable relationship source %q", left)
		}
		tgtMatch := targetRe.FindStringSubmatch(right)
		if tgtMatch == nil {
			return errors.Newf("unparseable relationship target %q", right)
		}

		label := tgtMatch[3]
		if label == "" {
			label = strings.TrimSpace(tgtMatch[4])
		}

		r := model.Relationship{
			Source:            srcMatch[1],
			Target:            tgtMatch[2],
			Kind:              rel.kind,
			CardinalitySource: srcMatch[2],
			CardinalityTarget: tgtMatch[1],
			Label:             label,
		}
		if rel.reversed {
			r.Source, r.Target = r.Target, r.Source
			r.CardinalitySource, r.CardinalityTarget = r.CardinalityTarget, r.CardinalitySource
		}
		m.AddRelationship(r)
		return nil
	}
	return nil
}

// wireInheritance mirrors inheritance relationships onto Class.Parents
// so ancestor walks see hierarchy already present in the source diagram.
func wireInheritance(m *model.ClassModel) {
	for _, r := range m.Relationships {
		if r.Kind != model.RelInheritance {
			continue
		}
		child, ok := m.ByName(r.Source)
		if !ok {
			continue
		}
		if !contains(child.Parents, r.Target) {
			child.Parents = append(child.Parents, r.Target)
		}
	}
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
