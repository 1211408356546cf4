// Package templates holds the HTML pages as templ components.
//
// Components are written directly against the templ runtime
// (templ.ComponentFunc plus templ.EscapeString) and compose the same way
// generated components do. Every dynamic value goes through esc.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// esc HTML-escapes s for text and attribute positions.
func esc(s string) string {
	return templ.EscapeString(s)
}

// writer accumulates the first write error so page bodies read top to bottom.
type writer struct {
	w   io.Writer
	err error
}

func (p *writer) s(parts ...string) {
	for _, part := range parts {
		if p.err != nil {
			return
		}
		_, p.err = io.WriteString(p.w, part)
	}
}

func (p *writer) c(ctx context.Context, c templ.Component) {
	if p.err != nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

// Layout wraps body in the shared page chrome.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.s(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(title), ` · tidycsv</title>`,
			`<link rel="stylesheet" href="/static/style.css"></head><body>`,
			`<header class="site"><a href="/" class="brand">tidycsv</a></header>`,
			`<main>`)
		p.c(ctx, body)
		p.s(`</main></body></html>`)
		return p.err
	})
}
