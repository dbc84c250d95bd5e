// Package report renders the Markdown note comparing a reference mempool with
// a subject mempool.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/0xb10c/mempoolnote/src/delta"
	"github.com/0xb10c/mempoolnote/src/types"
)

// DeltaStyle selects how the subject metrics are annotated.
type DeltaStyle string

const (
	// StylePercent annotates with the percentage delta only, e.g. "(-20%)".
	StylePercent DeltaStyle = "percent"
	// StylePercentAbsolute annotates with the absolute and percentage delta,
	// e.g. "(-1, -20%)".
	StylePercentAbsolute DeltaStyle = "percent+absolute"
)

// ParseDeltaStyle returns the DeltaStyle named s.
func ParseDeltaStyle(s string) (DeltaStyle, error) {
	switch v := DeltaStyle(s); v {
	case StylePercent, StylePercentAbsolute:
		return v, nil
	}
	return "", errors.Errorf("unknown delta style %q", s)
}

const (
	DefaultReferenceTitle = "Spammy Mempool (mempool.space)"
	DefaultSubjectTitle   = "Tidy Mempool (Ordisrespector node)"

	// NotAvailable is rendered for deltas against a zero baseline.
	NotAvailable = "n/a"

	// defaultPurgeFloor is the minimum relay fee of a node that does not
	// purge its mempool.
	defaultPurgeFloor = 1

	// DateLayout is the layout of the header timestamp.
	DateLayout = time.RFC1123Z
)

type metric struct {
	label string
	value func(types.MempoolSnapshot) float64
}

var metrics = []metric{
	{"Unconfirmed TXs", func(s types.MempoolSnapshot) float64 { return float64(s.UnconfirmedTxCount) }},
	{"Unconfirmed Blocks", func(s types.MempoolSnapshot) float64 { return float64(s.ProjectedBlockCount) }},
	{"Memory Usage (MB)", func(s types.MempoolSnapshot) float64 { return s.MemoryUsageMB }},
	{"No Prio Fee (s/vB)", func(s types.MempoolSnapshot) float64 { return float64(s.NoPriorityFee) }},
	{"Low Prio Fee (s/vB)", func(s types.MempoolSnapshot) float64 { return float64(s.LowPriorityFee) }},
	{"Medium Prio Fee (s/vB)", func(s types.MempoolSnapshot) float64 { return float64(s.MediumPriorityFee) }},
	{"Max Prio Fee (s/vB)", func(s types.MempoolSnapshot) float64 { return float64(s.HighPriorityFee) }},
}

const purgeLabel = "Purging below (s/vB)"

// Generator renders comparison notes.
type Generator struct {
	Style          DeltaStyle
	ReferenceTitle string
	SubjectTitle   string
	Epsilon        float64
}

// NewGenerator returns a Generator with the default titles and epsilon.
func NewGenerator(style DeltaStyle) *Generator {
	return &Generator{
		Style:          style,
		ReferenceTitle: DefaultReferenceTitle,
		SubjectTitle:   DefaultSubjectTitle,
		Epsilon:        delta.DefaultEpsilon,
	}
}

// Render returns the note comparing subject against reference at time `at`.
func (g *Generator) Render(reference, subject types.MempoolSnapshot, at time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Date: %s\n\n---\n\n", at.UTC().Format(DateLayout))

	fmt.Fprintf(&b, "#### %s\n\n", g.ReferenceTitle)
	for _, m := range metrics {
		fmt.Fprintf(&b, "%s:\t**%s**\n\n", m.label, formatValue(m.value(reference)))
	}
	if reference.HasPurgeFloor() {
		if *reference.MinimumFee > defaultPurgeFloor {
			fmt.Fprintf(&b, "%s:\t**%d**\n\n", purgeLabel, *reference.MinimumFee)
		} else {
			b.WriteString("Not purging transactions\n\n")
		}
	}

	fmt.Fprintf(&b, "---\n\n#### %s\n\n", g.SubjectTitle)
	for _, m := range metrics {
		current, baseline := m.value(subject), m.value(reference)
		fmt.Fprintf(&b, "%s:\t**%s**\t*(%s)*\n\n",
			m.label, formatValue(current), g.annotate(g.Style, current, baseline))
	}
	if reference.HasPurgeFloor() && subject.HasPurgeFloor() {
		current, baseline := float64(*subject.MinimumFee), float64(*reference.MinimumFee)
		fmt.Fprintf(&b, "%s:\t**%d**\t*(%s)*\n\n",
			purgeLabel, *subject.MinimumFee, g.annotate(StylePercentAbsolute, current, baseline))
	}

	return b.String()
}

func (g *Generator) annotate(style DeltaStyle, current, baseline float64) string {
	percent, err := delta.PercentDelta(current, baseline, g.Epsilon)
	if err != nil {
		percent = NotAvailable
	}
	if style != StylePercentAbsolute {
		return percent
	}
	return delta.FormatAbsolute(delta.AbsoluteDelta(current, baseline)) + ", " + percent
}

// formatValue renders a metric as a whole number.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
