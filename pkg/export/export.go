// Package export renders calculation results and measurements for people:
// spreadsheets, clipboard text and markdown tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/elementx/pkg/chem"
	"github.com/aretw0/elementx/pkg/domain"
)

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{"Element", "Stoichiometry", "Atomic Mass", "Required Mass (g)", "Weight %"}

func count(f float64) string   { return strconv.FormatFloat(f, 'f', -1, 64) }
func atomic(f float64) string  { return strconv.FormatFloat(f, 'f', 3, 64) }
func grams(f float64) string   { return strconv.FormatFloat(f, 'f', 6, 64) }
func percent(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

// WriteCSV writes one row per component, a blank line and a total row.
func WriteCSV(w io.Writer, r chem.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, c := range r.Components {
		if err := cw.Write([]string{
			c.Element,
			count(c.Count),
			atomic(c.AtomicMass),
			grams(c.Mass),
			percent(r.WeightPercent(c)),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	if err := cw.Write([]string{"Total Mass", "", "", grams(r.Total), "100.00"}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Summary is the plain-text form used for copying a result elsewhere.
func Summary(r chem.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Stoichiometric Calculation\n", r.Formula)
	fmt.Fprintf(&b, "Target: %s g %s\n\n", count(r.TargetMass), r.Target)
	for _, c := range r.Components {
		fmt.Fprintf(&b, "%s: %s g (%s%%)\n", c.Element, grams(c.Mass), percent(r.WeightPercent(c)))
	}
	fmt.Fprintf(&b, "\nTotal: %s g", grams(r.Total))
	return b.String()
}

// Markdown renders the result as a heading and a table.
func Markdown(title string, r chem.Result) string {
	if title == "" {
		title = r.Formula
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	if title != r.Formula {
		fmt.Fprintf(&b, "Formula: `%s`  \n", r.Formula)
	}
	fmt.Fprintf(&b, "Target: **%s g %s**\n\n", count(r.TargetMass), r.Target)
	b.WriteString("| Element | Stoichiometry | Atomic Mass | Required Mass (g) | Weight % |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, c := range r.Components {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			c.Element, count(c.Count), atomic(c.AtomicMass), grams(c.Mass), percent(r.WeightPercent(c)))
	}
	fmt.Fprintf(&b, "| **Total** | | | **%s** | **100.00** |\n", grams(r.Total))
	return b.String()
}

// MeasurementMarkdown renders the derived data of an imported file.
func MeasurementMarkdown(m domain.Measurement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", m.Filename)
	fmt.Fprintf(&b, "%d data points", len(m.Points))
	if m.Notes != "" {
		fmt.Fprintf(&b, "  \nNotes: %s", m.Notes)
	}
	b.WriteString("\n\n")

	switch m.Kind {
	case domain.KindXRD:
		if len(m.Peaks) == 0 {
			b.WriteString("No peaks found.\n")
			break
		}
		b.WriteString("| # | 2θ (°) | Intensity | Prominence |\n")
		b.WriteString("|---:|---:|---:|---:|\n")
		for i, p := range m.Peaks {
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, atomic(p.Angle), count(p.Intensity), count(p.Prominence))
		}
	case domain.KindMagnetic:
		fmt.Fprintf(&b, "Measurement type: **%s**\n\n", m.MeasurementType)
		if m.Properties == nil {
			break
		}
		b.WriteString("| Property | Value |\n")
		b.WriteString("|---|---:|\n")
		fmt.Fprintf(&b, "| Ms | %s |\n", atomic(m.Properties.Ms))
		fmt.Fprintf(&b, "| Mr | %s |\n", atomic(m.Properties.Mr))
		fmt.Fprintf(&b, "| Hc | %s |\n", atomic(m.Properties.Hc))
	}
	return b.String()
}

// Filename is the download name for a sample's CSV export. Whitespace
// becomes underscores; path separators and quotes are dropped.
func Filename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case r == '/' || r == '\\' || r == '"':
		default:
			b.WriteRune(r)
		}
	}
	return b.String() + "_calculation.csv"
}
