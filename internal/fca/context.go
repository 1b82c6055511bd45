// Package fca holds the formal-concept-analysis side of the pipeline:
// the object×attribute context built from a class model, the concept
// repository returned by the external lattice tool, relevance scoring
// and lattice completion.
package fca

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strings"

	"abstractor/internal/model"

	"github.com/cockroachdb/errors"
)

// ErrEmptyModel is returned when a context is requested for a model
// with no classes. Fatal to the run.
var ErrEmptyModel = errors.New("class model has no classes")

// Context is the boolean incidence matrix: objects are class names,
// attributes are feature signatures. Immutable once built.
type Context struct {
	Objects    []string // sorted class names
	Attributes []string // sorted feature signatures
	incidence  map[string]map[string]bool
}

// BuildContext enumerates every feature signature across the model and
// records which class declares which signature.
func BuildContext(m *model.ClassModel) (*Context, error) {
	if m == nil || len(m.Classes) == 0 {
		return nil, ErrEmptyModel
	}

	attrSet := make(map[string]bool)
	incidence := make(map[string]map[string]bool, len(m.Classes))

	for _, c := range m.Classes {
		row := make(map[string]bool, len(c.Features))
		for _, f := range c.Features {
			sig := f.Signature()
			attrSet[sig] = true
			row[sig] = true
		}
		incidence[c.Name] = row
	}

	ctx := &Context{
		Objects:    m.ClassNames(),
		Attributes: make([]string, 0, len(attrSet)),
		incidence:  incidence,
	}
	for sig := range attrSet {
		ctx.Attributes = append(ctx.Attributes, sig)
	}
	sort.Strings(ctx.Attributes)

	return ctx, nil
}

// HasObject reports whether the class name is an object of the context.
func (c *Context) HasObject(name string) bool {
	_, ok := c.incidence[name]
	return ok
}

// HasAttribute reports whether the signature is a known attribute.
func (c *Context) HasAttribute(sig string) bool {
	i := sort.SearchStrings(c.Attributes, sig)
	return i < len(c.Attributes) && c.Attributes[i] == sig
}

// Carries reports whether the class declares the feature signature.
func (c *Context) Carries(class, sig string) bool {
	return c.incidence[class][sig]
}

// CarriesAll reports whether the class declares every signature in the set.
func (c *Context) CarriesAll(class string, sigs map[string]bool) bool {
	row, ok := c.incidence[class]
	if !ok {
		return false
	}
	for sig := range sigs {
		if !row[sig] {
			return false
		}
	}
	return true
}

var labelEscaper = strings.NewReplacer(
	"%", "%25",
	",", "%2C",
	"<", "%3C",
	">", "%3E",
	`"`, "%22",
	"\n", "%0A",
)

var labelUnescaper = strings.NewReplacer(
	"%2C", ",",
	"%3C", "<",
	"%3E", ">",
	"%22", `"`,
	"%0A", "\n",
	"%25", "%",
)

// EscapeLabel makes a feature signature safe for the CSV export format.
// Structural punctuation (generic-type angle brackets, commas, quotes)
// is percent-encoded; EscapeLabel and UnescapeLabel round-trip.
func EscapeLabel(sig string) string {
	return labelEscaper.Replace(sig)
}

// UnescapeLabel reverses EscapeLabel.
func UnescapeLabel(label string) string {
	return labelUnescaper.Replace(label)
}

// ExportCSV writes the context in the layout the external lattice tool
// consumes: empty first header cell, one escaped attribute label per
// column, one class per row, "X" marking incidence.
func (c *Context) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(c.Attributes)+1)
	header = append(header, "")
	for _, attr := range c.Attributes {
		header = append(header, EscapeLabel(attr))
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write context header")
	}

	for _, obj := range c.Objects {
		row := make([]string, 0, len(c.Attributes)+1)
		row = append(row, obj)
		for _, attr := range c.Attributes {
			if c.Carries(obj, attr) {
				row = append(row, "X")
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write context row %s", obj)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flush context csv")
}

// WriteFile exports the context CSV to the given path.
func (c *Context) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create context file %s", path)
	}
	defer f.Close()
	return c.ExportCSV(f)
}
