package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/richard-senior/matchpredict/pkg/app"
	"github.com/richard-senior/matchpredict/pkg/predictor"
	"github.com/richard-senior/matchpredict/pkg/sentiment"
)

// writer collects the first error so components can be written as a flat
// sequence of prints.
type writer struct {
	w   io.Writer
	err error
}

func (pw *writer) raw(format string, args ...any) {
	if pw.err != nil {
		return
	}
	_, pw.err = fmt.Fprintf(pw.w, format, args...)
}

// text writes s escaped.
func (pw *writer) text(s string) { pw.raw("%s", templ.EscapeString(s)) }

func (pw *writer) child(ctx context.Context, c templ.Component) {
	if pw.err != nil || c == nil {
		return
	}
	pw.err = c.Render(ctx, pw.w)
}

const stylesheet = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:60rem;color:#222}
table{border-collapse:collapse;width:100%}td,th{padding:.25rem .5rem;border-bottom:1px solid #ddd;text-align:right}
td:first-child,th:first-child{text-align:left}.outcome{font-size:1.5rem}.error{background:#fde8e8;padding:1rem}
.nodata{color:#888;font-style:italic}.columns{display:flex;gap:2rem}.columns>section{flex:1}`

// Layout wraps body in the page chrome.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w}
		pw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		pw.text(title)
		pw.raw(`</title><style>%s</style></head><body><header><h1><a href="/">Match Predictor</a></h1></header><main>`, stylesheet)
		pw.child(ctx, body)
		pw.raw(`</main></body></html>`)
		return pw.err
	})
}

// TeamPicker is the two-select form. Both lists offer every team; the server
// rejects identical selections.
func TeamPicker(teams []string, home, away string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w}
		pw.raw(`<form id="picker" method="get" action="/predict">`)
		for _, side := range []struct{ name, label, selected string }{
			{"home", "Home team", home},
			{"away", "Away team", away},
		} {
			pw.raw(`<label>%s <select name="%s" required><option value="">Select</option>`, side.label, side.name)
			for _, t := range teams {
				sel := ""
				if t == side.selected {
					sel = " selected"
				}
				pw.raw(`<option value="`)
				pw.text(t)
				pw.raw(`"%s>`, sel)
				pw.text(t)
				pw.raw(`</option>`)
			}
			pw.raw(`</select></label> `)
		}
		pw.raw(`<button type="submit">Predict</button></form>`)
		return pw.err
	})
}

// ErrorPanel shows a rejected request, with suggestions for mistyped teams.
func ErrorPanel(message string, suggestions []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w}
		pw.raw(`<div class="error" role="alert"><p>`)
		pw.text(message)
		pw.raw(`</p>`)
		if len(suggestions) > 0 {
			pw.raw(`<p>Did you mean: `)
			for i, s := range suggestions {
				if i > 0 {
					pw.raw(", ")
				}
				pw.raw(`<span class="suggestion">`)
				pw.text(s)
				pw.raw(`</span>`)
			}
			pw.raw(`</p>`)
		}
		pw.raw(`</div>`)
		return pw.err
	})
}

// SentimentPanel renders a team's tally or the "no data" state.
func SentimentPanel(t *sentiment.Tally) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w}
		pw.raw(`<div class="sentiment"><h3>Fan sentiment</h3>`)
		if t.IsEmpty() {
			pw.raw(`<p class="nodata">No sentiment data for `)
			pw.text(t.Team)
			pw.raw(`</p></div>`)
			return pw.err
		}
		pw.raw(`<table><tr><th>Label</th><th>Records</th><th>Share</th></tr>`)
		for _, l := range sentiment.Labels {
			pw.raw(`<tr class="%s"><td>%s</td><td>%d</td><td>%.1f%%</td></tr>`, l, l, t.Count(l), 100*t.Share(l))
		}
		pw.raw(`</table></div>`)
		return pw.err
	})
}

// statsTable lays the two teams' own averages side by side.
func statsTable(home, away *app.TeamSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w}
		pw.raw(`<table class="stats"><tr><th>Average per match</th><th>`)
		pw.text(home.Team)
		pw.raw(`</th><th>`)
		pw.text(away.Team)
		pw.raw(`</th></tr>`)
		for k := predictor.StatKind(0); k < predictor.NumStatKinds; k++ {
			pw.raw(`<tr><td>%s</td><td>%.2f</td><td>%.2f</td></tr>`, k, home.Features.Own(k), away.Features.Own(k))
		}
		pw.raw(`<tr><td>Matches</td><td>%d</td><td>%d</td></tr>`, home.Features.Matches, away.Features.Matches)
		pw.raw(`<tr><td>Form</td><td>%s</td><td>%s</td></tr>`, home.Record.FormString(), away.Record.FormString())
		pw.raw(`<tr><td>Points per game</td><td>%.2f</td><td>%.2f</td></tr>`, home.Record.PointsPerGame(), away.Record.PointsPerGame())
		pw.raw(`</table>`)
		return pw.err
	})
}

// ReportView renders one prediction.
func ReportView(r *app.Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w}
		p := r.Prediction
		pw.raw(`<article class="report" data-id="%s"><h2>`, templ.EscapeString(r.ID))
		pw.text(r.Home.Team + " v " + r.Away.Team)
		pw.raw(`</h2><p class="outcome">%s <span class="confidence">(%.1f%% confidence)</span></p>`,
			templ.EscapeString(p.Label), 100*p.Confidence)

		pw.raw(`<h3>Probabilities</h3><table class="probabilities"><tr><th>Outcome</th><th>Probability</th></tr>`)
		for _, op := range p.Probabilities {
			pw.raw(`<tr><td>%s</td><td>%.1f%%</td></tr>`, templ.EscapeString(op.Label), 100*op.Probability)
		}
		pw.raw(`</table>`)

		pw.raw(`<h3>Team statistics</h3>`)
		pw.child(ctx, statsTable(r.Home, r.Away))

		pw.raw(`<h3>Top influencing features</h3><table class="features"><tr><th>Feature</th><th>Importance</th><th>Value</th></tr>`)
		for _, fw := range p.TopFeatures {
			pw.raw(`<tr><td>%s</td><td>%.3f</td><td>%.2f</td></tr>`, templ.EscapeString(fw.Feature), fw.Importance, fw.Value)
		}
		pw.raw(`</table>`)
		q := url.Values{"home": {r.Home.Team}, "away": {r.Away.Team}}
		pw.raw(`<img alt="Feature importance" src="/charts/importance.svg?%s">`, templ.EscapeString(q.Encode()))

		pw.raw(`<div class="columns"><section><h4>`)
		pw.text(r.Home.Team)
		pw.raw(`</h4>`)
		pw.child(ctx, SentimentPanel(r.Home.Sentiment))
		pw.raw(`</section><section><h4>`)
		pw.text(r.Away.Team)
		pw.raw(`</h4>`)
		pw.child(ctx, SentimentPanel(r.Away.Sentiment))
		pw.raw(`</section></div></article>`)
		return pw.err
	})
}

// IndexPage is the landing page.
func IndexPage(teams []string) templ.Component {
	return Layout("Match Predictor", TeamPicker(teams, "", ""))
}

// PredictPage shows the picker above either a report or an error.
func PredictPage(teams []string, home, away string, report *app.Report, errPanel templ.Component) templ.Component {
	title := strings.TrimSpace(home + " v " + away)
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &writer{w: w}
		pw.child(ctx, TeamPicker(teams, home, away))
		if errPanel != nil {
			pw.child(ctx, errPanel)
		} else if report != nil {
			pw.child(ctx, ReportView(report))
		}
		return pw.err
	})
	return Layout(title, body)
}
