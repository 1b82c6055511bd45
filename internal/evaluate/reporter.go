// Package evaluate scores materialized abstractions and exports the
// evaluation artifact. It never mutates the class model.
package evaluate

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"abstractor/internal/abstraction"
	"abstractor/internal/naming"

	"github.com/cockroachdb/errors"
)

// Record is the terminal quality artifact for one abstraction.
// Immutable after creation.
type Record struct {
	ConceptID         string
	Name              string
	NameJustification string
	NameScore         float64
	NameScoreReason   string
	AbstractionScore  float64
	AbstractionReason string
	Extent            []string
	Intent            []string
	Relevance         float64
	NamingConfidence  float64
}

// Reporter accumulates records for one run.
type Reporter struct {
	records []Record
}

func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) Records() []Record {
	return r.records
}

// Evaluate scores one candidate and appends its record.
func (r *Reporter) Evaluate(conceptID string, cand *abstraction.Candidate, named naming.Result) Record {
	extent := cand.SortedExtent()
	intent := cand.SortedIntent()

	nrs := nameRelevance(named, intent)
	ars := abstractionRelevance(cand.Relevance, len(extent), len(intent))

	rec := Record{
		ConceptID:         conceptID,
		Name:              named.Name,
		NameJustification: nameJustification(extent, intent),
		NameScore:         nrs,
		NameScoreReason:   nrsReason(named.Name, nrs),
		AbstractionScore:  ars,
		AbstractionReason: arsReason(len(extent), len(intent), ars),
		Extent:            extent,
		Intent:            intent,
		Relevance:         cand.Relevance,
		NamingConfidence:  named.Confidence,
	}
	r.records = append(r.records, rec)
	return rec
}

// nameRelevance starts from naming confidence and adjusts for name
// quality: generic Abstract-prefixed names are penalized, longer
// descriptive names rewarded, and names that only echo a feature name
// penalized for describing an attribute instead of the concept.
func nameRelevance(named naming.Result, intent []string) float64 {
	score := named.Confidence
	name := named.Name

	if strings.HasPrefix(name, "Abstract") && len(name) < 15 {
		score *= 0.8
	}
	if len(name) > 8 && !strings.HasPrefix(name, "Abstract") {
		score = math.Min(1.0, score*1.1)
	}
	if echoesFeature(name, intent) {
		score *= 0.85
	}
	return round2(score)
}

// echoesFeature reports whether the name restates a feature name,
// modulo the Abstract prefix, casing, and underscores. Partial overlap
// counts too: a name built around one feature describes an attribute,
// not the concept. Features shorter than three characters only match
// exactly, so "id" does not taint every Identifiable-style name.
func echoesFeature(name string, intent []string) bool {
	bare := strings.ToLower(strings.TrimPrefix(name, "Abstract"))
	if bare == "" {
		return false
	}
	for _, sig := range intent {
		feat := sig
		feat = strings.TrimLeft(feat, "+-#~ ")
		if idx := strings.IndexAny(feat, ":("); idx >= 0 {
			feat = feat[:idx]
		}
		feat = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(feat), "_", ""))
		if feat == bare {
			return true
		}
		if len(feat) >= 3 && (strings.Contains(bare, feat) || strings.Contains(feat, bare)) {
			return true
		}
	}
	return false
}

func abstractionRelevance(relevance float64, extentSize, intentSize int) float64 {
	base := relevance / 100.0
	value := math.Min(1.0, (float64(extentSize)/5.0+float64(intentSize)/10.0)/2)
	return round2(math.Min(1.0, 0.6*base+0.4*value))
}

func nameJustification(extent, intent []string) string {
	var attributes, methods []string
	for _, sig := range intent {
		bare := strings.TrimLeft(sig, "+-#~ ")
		if idx := strings.Index(bare, "("); idx >= 0 {
			methods = append(methods, bare[:idx])
		} else if idx := strings.Index(bare, ":"); idx >= 0 {
			attributes = append(attributes, strings.TrimSpace(bare[:idx]))
		} else {
			attributes = append(attributes, bare)
		}
	}

	var parts []string
	if len(attributes) > 0 {
		parts = append(parts, "Common attributes: "+strings.Join(head(attributes, 3), ", "))
	}
	if len(methods) > 0 {
		parts = append(parts, "Common methods: "+strings.Join(head(methods, 3), ", "))
	}
	if len(extent) > 0 {
		parts = append(parts, fmt.Sprintf("Shared by %d classes: %s", len(extent), strings.Join(head(extent, 3), ", ")))
	}
	return strings.Join(parts, ". ") + "."
}

func nrsReason(name string, nrs float64) string {
	switch {
	case nrs >= 0.8:
		return fmt.Sprintf("Name '%s' clearly describes the common concept and is semantically appropriate.", name)
	case nrs >= 0.6:
		return fmt.Sprintf("Name '%s' is adequate but could be more descriptive of the common features.", name)
	case nrs >= 0.4:
		return fmt.Sprintf("Name '%s' is generic; derived from common attribute but not strongly semantic.", name)
	default:
		return fmt.Sprintf("Name '%s' is a fallback naming; low semantic meaning.", name)
	}
}

func arsReason(extentSize, intentSize int, ars float64) string {
	switch {
	case ars >= 0.8:
		return fmt.Sprintf("Highly valuable abstraction: %d classes share %d features. Significant code reuse opportunity.", extentSize, intentSize)
	case ars >= 0.6:
		return fmt.Sprintf("Useful abstraction: %d classes with %d common features. Good for code organization.", extentSize, intentSize)
	case ars >= 0.4:
		return fmt.Sprintf("Moderate value: %d classes share %d features. Limited reuse benefit.", extentSize, intentSize)
	default:
		return fmt.Sprintf("Low value: Only %d classes with %d common features. Questionable abstraction.", extentSize, intentSize)
	}
}

var csvHeader = []string{
	"Id Concept",
	"Concept name",
	"Name justification",
	"Name relevance score (NRS)",
	"Justification for the NRS score",
	"Abstraction relevance score (ARS)",
	"Justification for the ARS score",
	"Extent (child classes)",
	"Intent (common features)",
	"FCA Relevance Score",
	"Naming Confidence",
}

// ExportCSV writes one row per record with the key metrics.
func (r *Reporter) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write evaluation header")
	}
	for _, rec := range r.records {
		row := []string{
			rec.ConceptID,
			rec.Name,
			rec.NameJustification,
			fmt.Sprintf("%.2f", rec.NameScore),
			rec.NameScoreReason,
			fmt.Sprintf("%.2f", rec.AbstractionScore),
			rec.AbstractionReason,
			strings.Join(rec.Extent, ", "),
			strings.Join(rec.Intent, ", "),
			fmt.Sprintf("%.2f", rec.Relevance),
			fmt.Sprintf("%.2f", rec.NamingConfidence),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write evaluation row for %s", rec.ConceptID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush evaluation csv")
}

// WriteFile exports the records to path.
func (r *Reporter) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	return r.ExportCSV(f)
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
