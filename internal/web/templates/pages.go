package templates

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/tidycsv/internal/core"
	"github.com/a-h/templ"
)

// FormDefaults preselects the strategy dropdowns on the upload form.
type FormDefaults struct {
	Numeric     string
	Categorical string
	MaxFileSize int64
}

type option struct {
	value string
	label string
}

var numericOptions = []option{
	{"mean", "Mean"},
	{"median", "Median"},
	{"mode", "Mode (most frequent)"},
	{"none", "Leave missing"},
}

var categoricalOptions = []option{
	{"mode", "Mode (most frequent)"},
	{"constant", `Fill with "Not Available"`},
}

// IndexPage is the upload form.
func IndexPage(d FormDefaults) templ.Component {
	return Layout("Clean a file", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.s(`<h1>Clean a data file</h1>`,
			`<p class="lead">Upload a CSV, TSV or XLSX file. Duplicate rows are removed, `,
			`missing values are filled and text columns are trimmed and lowercased.</p>`,
			`<form method="post" action="/upload" enctype="multipart/form-data" class="card">`,
			`<label for="file">File</label>`,
			`<input type="file" id="file" name="file" accept=".csv,.tsv,.txt,.xlsx" required>`,
			`<p class="hint">Up to `, esc(formatBytes(d.MaxFileSize)), `.</p>`)
		p.s(`<label for="numeric_strategy">Numeric columns</label>`)
		p.c(ctx, selectBox("numeric_strategy", numericOptions, d.Numeric))
		p.s(`<label for="categorical_strategy">Text columns</label>`)
		p.c(ctx, selectBox("categorical_strategy", categoricalOptions, d.Categorical))
		p.s(`<button type="submit">Clean file</button></form>`)
		return p.err
	}))
}

func selectBox(name string, opts []option, selected string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.s(`<select id="`, esc(name), `" name="`, esc(name), `">`)
		for _, o := range opts {
			sel := ""
			if o.value == selected {
				sel = " selected"
			}
			p.s(`<option value="`, esc(o.value), `"`, sel, `>`, esc(o.label), `</option>`)
		}
		p.s(`</select>`)
		return p.err
	})
}

// SummaryPage reports a finished run and links the cleaned file.
func SummaryPage(res *core.RunResult) templ.Component {
	return Layout("Cleaning summary", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		s := res.Summary
		p := &writer{w: w}
		p.s(`<h1>Cleaning summary</h1>`,
			`<p class="lead">`, esc(res.FileName), ` cleaned in `, strconv.FormatInt(res.DurationMS, 10), ` ms.</p>`,
			`<section class="card"><table class="stats"><tbody>`)
		p.c(ctx, statRow("Rows before", strconv.Itoa(s.RowsBefore)))
		p.c(ctx, statRow("Rows after", strconv.Itoa(s.RowsAfter)))
		p.c(ctx, statRow("Duplicates removed", strconv.Itoa(s.DuplicatesRemoved)))
		p.c(ctx, statRow("Missing values before", strconv.Itoa(s.MissingBefore)))
		p.c(ctx, statRow("Missing values after", strconv.Itoa(s.MissingAfter)))
		p.c(ctx, statRow("Values filled", strconv.Itoa(s.ValuesFilled)))
		p.c(ctx, statRow("Numeric strategy", strategyLabel(s.NumericStrategy, s.NumericApplied)))
		p.c(ctx, statRow("Categorical strategy", strategyLabel(s.CategoricalStrategy, s.CategoricalApplied)))
		p.s(`</tbody></table></section>`)

		if len(s.Warnings) > 0 {
			p.s(`<section class="card warnings"><h2>Warnings</h2><ul>`)
			for _, warn := range s.Warnings {
				p.s(`<li>`, esc(warn), `</li>`)
			}
			p.s(`</ul></section>`)
		}

		p.s(`<section class="card"><h2>Missing values by column</h2>`,
			`<table class="columns"><thead><tr><th>Column</th><th>Type</th><th>Before</th><th>After</th></tr></thead><tbody>`)
		numeric := make(map[string]bool, len(s.NumericColumns))
		for _, n := range s.NumericColumns {
			numeric[n] = true
		}
		for _, c := range s.MissingByColumn() {
			kind := "text"
			if numeric[c.Name] {
				kind = "numeric"
			}
			p.s(`<tr><td>`, esc(c.Name), `</td><td>`, kind, `</td><td>`,
				strconv.Itoa(c.Before), `</td><td>`, strconv.Itoa(c.After), `</td></tr>`)
		}
		p.s(`</tbody></table></section>`)

		href := "/cleaned/" + url.PathEscape(res.CleanedFileName)
		p.s(`<p class="actions"><a class="button" href="`, esc(href), `" download>Download `,
			esc(res.CleanedFileName), `</a> <a href="/">Clean another file</a></p>`)
		return p.err
	}))
}

func statRow(label, value string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.s(`<tr><th scope="row">`, esc(label), `</th><td>`, esc(value), `</td></tr>`)
		return p.err
	})
}

// strategyLabel shows the submitted value and, when they differ, what it
// resolved to.
func strategyLabel(raw, applied string) string {
	switch {
	case raw == "":
		return applied + " (default)"
	case raw != applied:
		return raw + " → " + applied
	default:
		return applied
	}
}

// ErrorPage shows a user-facing error with its support code.
func ErrorPage(msg core.UserMessage, status int) templ.Component {
	return Layout("Error", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.s(`<section class="card error" role="alert"><h1>`, esc(msg.Message), `</h1>`)
		if msg.Action != "" {
			p.s(`<p>`, esc(msg.Action), `</p>`)
		}
		p.s(`<p class="code">Error code: `, esc(msg.Code), ` · HTTP `, strconv.Itoa(status), `</p>`,
			`<p><a href="/">Back to upload</a></p></section>`)
		return p.err
	}))
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return strconv.FormatInt(n/mb, 10) + " MB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}
