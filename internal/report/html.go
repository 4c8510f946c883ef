package report

import (
	"fmt"
	"html/template"
	"io"
)

// htmlCard is one headline value.
type htmlCard struct {
	Label string
	Value string
}

// htmlFold holds pre-formatted fold data for the HTML template.
type htmlFold struct {
	Fold           int
	Epochs         int
	BestF1         string
	BestF1Epoch    int
	MinValLoss     string
	FinalTrainLoss string
	BarWidth       float64 // best F1 as a percentage of the widest bar
}

// htmlData holds all pre-computed data for the HTML template.
type htmlData struct {
	Source string
	Cards  []htmlCard
	Folds  []htmlFold
	Counts Counts
}

// WriteHTML writes a self-contained HTML report with headline cards and the
// fold comparison table.
func (r *Report) WriteHTML(w io.Writer) error {
	return htmlTmpl.Execute(w, r.htmlData())
}

func (r *Report) htmlData() htmlData {
	d := htmlData{
		Source: r.Source,
		Counts: r.Counts,
		Cards: []htmlCard{
			{"Best OOF F1", FormatScore(r.Summary.BestOutOfFoldF1)},
			{"Threshold", FormatScore(r.Summary.BestThreshold)},
			{"Average F1", FormatScore(r.AverageF1)},
			{"Duration", FormatDuration(r.Summary.RunDurationSeconds)},
			{"Folds", fmt.Sprintf("%d", len(r.Folds))},
		},
	}

	var maxF1 float64
	for _, f := range r.Folds {
		if f.BestF1 != nil && *f.BestF1 > maxF1 {
			maxF1 = *f.BestF1
		}
	}
	for _, f := range r.Folds {
		hf := htmlFold{
			Fold:           f.Fold,
			Epochs:         f.Epochs,
			BestF1:         FormatScore(f.BestF1),
			BestF1Epoch:    f.BestF1Epoch,
			MinValLoss:     FormatScore(f.MinValLoss),
			FinalTrainLoss: FormatScore(f.FinalTrainLoss),
		}
		if f.BestF1 != nil && maxF1 > 0 {
			hf.BarWidth = *f.BestF1 / maxF1 * 100
		}
		d.Folds = append(d.Folds, hf)
	}
	return d
}

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8">
<title>neurofold training report</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif; max-width: 960px; margin: 2em auto; padding: 0 1em; color: #1a1a2e; background: #fafafa; }
h1 { border-bottom: 2px solid #e0e0e0; padding-bottom: 0.5em; }
.meta-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 1em; margin: 1em 0; }
.meta-card { background: white; border: 1px solid #e0e0e0; border-radius: 8px; padding: 1em; }
.meta-card .label { font-size: 0.85em; color: #666; text-transform: uppercase; }
.meta-card .value { font-size: 1.4em; font-weight: 600; margin-top: 0.3em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
th, td { border: 1px solid #e0e0e0; padding: 0.5em 0.8em; text-align: left; }
th { background: #f5f5f5; }
.bar { background: #e8f5e9; height: 0.8em; border-radius: 4px; }
.bar div { background: #43a047; height: 100%; border-radius: 4px; }
.counts { color: #666; font-size: 0.9em; }
</style></head><body>
<h1>neurofold training report</h1>
{{if .Source}}<p>Source: <code>{{.Source}}</code></p>{{end}}
<div class="meta-grid">
{{range .Cards}}<div class="meta-card"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>
{{end}}</div>
{{if .Folds}}<h2>Folds</h2>
<table><thead><tr><th>Fold</th><th>Epochs</th><th>Best F1</th><th>Best Epoch</th><th>Min Val Loss</th><th>Final Train Loss</th><th></th></tr></thead><tbody>
{{range .Folds}}<tr><td>{{.Fold}}</td><td>{{.Epochs}}</td><td>{{.BestF1}}</td><td>{{if .BestF1Epoch}}{{.BestF1Epoch}}{{else}}-{{end}}</td><td>{{.MinValLoss}}</td><td>{{.FinalTrainLoss}}</td><td style="width: 25%"><div class="bar"><div style="width: {{printf "%.1f" .BarWidth}}%"></div></div></td></tr>
{{end}}</tbody></table>{{end}}
<p class="counts">{{.Counts.Lines}} lines, {{.Counts.RelevantLines}} relevant, {{.Counts.StepRecords}} step records, {{.Counts.EpochRecords}} epoch records, {{.Counts.Dropped}} dropped values</p>
</body></html>
`))
