// Package report renders standardization and comparison results as HTML
// pages and serves them alongside the JSON API.
package report

import (
	"bytes"
	"html/template"
	"sort"
	"time"

	"github.com/modelseed/kbutil/internal/application/standardize"
	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/pkg/errors"
)

const standardizationTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Standardization report: {{.ModelID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f0f0f0; }
.frac { font-weight: bold; }
</style>
</head>
<body>
<h1>Standardization report: {{.ModelID}}</h1>
<p>Generated {{.Generated.Format "2006-01-02 15:04:05 MST"}}</p>

<h2>Coverage</h2>
<table>
<tr><th></th><th>Translated</th><th>Total</th><th>Fraction</th></tr>
<tr><td>Compounds</td><td>{{.Report.CompoundsTranslated}}</td><td>{{.Report.CompoundsTotal}}</td>
<td class="frac">{{printf "%.1f%%" .CompoundPercent}}</td></tr>
<tr><td>Reactions</td><td>{{.Report.ReactionsTranslated}}</td><td>{{.Report.ReactionsTotal}}</td>
<td class="frac">{{printf "%.1f%%" .ReactionPercent}}</td></tr>
</table>

<h2>Match types</h2>
<table>
<tr><th>Type</th><th>Reactions</th></tr>
{{range .MatchTypes}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
{{end}}</table>

{{if .Report.SkippedCompounds}}<h2>Skipped (target collisions)</h2>
<ul>{{range .Report.SkippedCompounds}}<li>{{.}}</li>{{end}}
{{range .Report.SkippedReactions}}<li>{{.}}</li>{{end}}</ul>{{end}}

{{if .Stats.UntranslatedCompounds}}<h2>Untranslated compounds</h2>
<ul>{{range .Stats.UntranslatedCompounds}}<li>{{.}}</li>{{end}}</ul>{{end}}

{{if .Stats.UntranslatedReactions}}<h2>Untranslated reactions</h2>
<ul>{{range .Stats.UntranslatedReactions}}<li>{{.}}</li>{{end}}</ul>{{end}}
</body>
</html>
`

const comparisonTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Model comparison: {{.ModelID}} vs {{.ReferenceID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f0f0f0; }
</style>
</head>
<body>
<h1>Model comparison: {{.ModelID}} vs {{.ReferenceID}}</h1>
<p>Generated {{.Generated.Format "2006-01-02 15:04:05 MST"}}</p>

<h2>Counts</h2>
<table>
<tr><th></th><th>Model</th><th>Reference</th><th>Shared</th></tr>
{{range .Counts}}<tr><td>{{.Name}}</td><td>{{index .Triple 0}}</td><td>{{index .Triple 1}}</td><td>{{index .Triple 2}}</td></tr>
{{end}}</table>

<h2>Reactions</h2>
<table>
<tr><th>Reaction</th><th>Best hit</th><th>Evidence</th><th>Genes</th><th>Dir</th><th>Hit dir</th></tr>
{{range .Comparison.Reactions}}<tr><td>{{.ModelID}}</td><td>{{.BestHit}}</td><td>{{.Tier}}</td><td>{{.GeneStatus}}</td><td>{{.ModelDirection}}</td><td>{{.HitDirection}}</td></tr>
{{end}}</table>
</body>
</html>
`

// Builder renders HTML reports.
type Builder struct {
	standardization *template.Template
	comparison      *template.Template
	now             func() time.Time
}

// NewBuilder parses the report templates.
func NewBuilder() *Builder {
	return &Builder{
		standardization: template.Must(template.New("standardization").Parse(standardizationTemplate)),
		comparison:      template.Must(template.New("comparison").Parse(comparisonTemplate)),
		now:             time.Now,
	}
}

type matchTypeRow struct {
	Name  string
	Count int
}

type countRow struct {
	Name   string
	Triple biochem.ComparisonCounts
}

// RenderStandardization renders a standardization result to HTML.
func (b *Builder) RenderStandardization(modelID string, result *standardize.Result) ([]byte, error) {
	if result == nil || result.Report == nil {
		return nil, errors.New(errors.ErrCodeValidation, "nothing to render")
	}
	types := make([]matchTypeRow, 0, len(result.Stats.MatchTypes))
	for name, count := range result.Stats.MatchTypes {
		types = append(types, matchTypeRow{Name: name, Count: count})
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })

	data := struct {
		ModelID         string
		Generated       time.Time
		Report          *biochem.ApplyReport
		Stats           standardize.MatchStats
		MatchTypes      []matchTypeRow
		CompoundPercent float64
		ReactionPercent float64
	}{
		ModelID:         modelID,
		Generated:       b.now(),
		Report:          result.Report,
		Stats:           result.Stats,
		MatchTypes:      types,
		CompoundPercent: result.Report.CompoundFraction() * 100,
		ReactionPercent: result.Report.ReactionFraction() * 100,
	}

	var buf bytes.Buffer
	if err := b.standardization.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "rendering report")
	}
	return buf.Bytes(), nil
}

// RenderComparison renders a model comparison to HTML.
func (b *Builder) RenderComparison(modelID, referenceID string, cmp *biochem.ModelComparison) ([]byte, error) {
	if cmp == nil {
		return nil, errors.New(errors.ErrCodeValidation, "nothing to render")
	}
	counts := make([]countRow, 0, len(cmp.Counts))
	for name, triple := range cmp.Counts {
		counts = append(counts, countRow{Name: name, Triple: triple})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Name < counts[j].Name })

	data := struct {
		ModelID     string
		ReferenceID string
		Generated   time.Time
		Counts      []countRow
		Comparison  *biochem.ModelComparison
	}{
		ModelID:     modelID,
		ReferenceID: referenceID,
		Generated:   b.now(),
		Counts:      counts,
		Comparison:  cmp,
	}

	var buf bytes.Buffer
	if err := b.comparison.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "rendering comparison")
	}
	return buf.Bytes(), nil
}
