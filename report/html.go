package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/networkteam/storefront-e2e/runner"
)

// HTMLReporter renders the report to a standalone HTML page when the run finishes.
type HTMLReporter struct {
	run
	Path string
}

var _ runner.Reporter = (*HTMLReporter)(nil)

func NewHTMLReporter(path string) *HTMLReporter {
	return &HTMLReporter{Path: path}
}

func (h *HTMLReporter) RunFinished(results runner.Results, elapsed time.Duration) error {
	rep := h.report(results, elapsed)
	return writeFile(h.Path, func(f *os.File) error {
		return Page(rep).Render(context.Background(), f)
	})
}

// Page renders the full report document.
func Page(rep Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		_, _ = io.WriteString(w, templ.EscapeString(fmt.Sprintf("Storefront E2E report %s", rep.Started.Format(time.DateTime))))
		_, _ = io.WriteString(w, `</title>`)
		_, _ = io.WriteString(w, pageStyles)
		if err := chromaStyles().Render(ctx, w); err != nil {
			return err
		}
		_, _ = io.WriteString(w, `</head><body>`)

		if err := summary(rep).Render(ctx, w); err != nil {
			return err
		}
		for _, res := range rep.Results {
			if err := resultSection(res).Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

const pageStyles = `<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #111; }
.badge { display: inline-block; border-radius: 9999px; padding: 0.1rem 0.6rem; font-size: 0.75rem; font-weight: 600; font-family: monospace; color: #fff; }
.badge-success { background: #16a34a; }
.badge-error { background: #ef4444; }
.badge-warning { background: #fb923c; }
.badge-secondary { background: #e5e5e5; color: #000; }
.result { border: 1px solid #e5e5e5; border-radius: 0.5rem; padding: 0.75rem 1rem; margin: 0.75rem 0; }
.meta { color: #666; font-size: 0.85rem; }
.failure { white-space: pre-wrap; background: #fef2f2; padding: 0.5rem; border-radius: 0.25rem; }
ol.steps { margin: 0.25rem 0; }
</style>`

type badgeVariant string

const (
	badgeSuccess   badgeVariant = "success"
	badgeError     badgeVariant = "error"
	badgeWarning   badgeVariant = "warning"
	badgeSecondary badgeVariant = "secondary"
)

func statusVariant(s runner.Status) badgeVariant {
	switch s {
	case runner.StatusPassed:
		return badgeSuccess
	case runner.StatusFailed:
		return badgeError
	case runner.StatusSkipped:
		return badgeWarning
	default:
		return badgeSecondary
	}
}

func badge(variant badgeVariant, text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<span class="badge badge-%s">%s</span>`, variant, templ.EscapeString(text))
		return err
	})
}

func summary(rep Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = fmt.Fprintf(w, `<h1>Storefront E2E report</h1><p class="meta">Run %s started %s, %s on %d workers</p><p>`,
			templ.EscapeString(rep.RunID.String()),
			templ.EscapeString(rep.Started.Format(time.RFC3339)),
			templ.EscapeString(rep.Duration.Round(time.Millisecond).String()),
			rep.Workers,
		)
		counts := []struct {
			variant badgeVariant
			label   string
			n       int
		}{
			{badgeSecondary, "total", rep.Summary.Total},
			{badgeSuccess, "passed", rep.Summary.Passed},
			{badgeError, "failed", rep.Summary.Failed},
			{badgeWarning, "skipped", rep.Summary.Skipped},
		}
		for _, c := range counts {
			if err := badge(c.variant, fmt.Sprintf("%d %s", c.n, c.label)).Render(ctx, w); err != nil {
				return err
			}
			_, _ = io.WriteString(w, " ")
		}
		_, err := io.WriteString(w, `</p>`)
		return err
	})
}

func resultSection(res runner.Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, `<section class="result"><h3>`)
		if err := badge(statusVariant(res.Status), res.Status.String()).Render(ctx, w); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, ` %s</h3><p class="meta">worker %d, %s`,
			templ.EscapeString(res.FullName), res.Worker, templ.EscapeString(res.Duration.Round(time.Millisecond).String()))
		if len(res.Tags) > 0 {
			_, _ = fmt.Fprintf(w, `, tags %s`, templ.EscapeString(strings.Join(res.Tags, " ")))
		}
		_, _ = io.WriteString(w, `</p>`)

		if res.Status == runner.StatusFailed {
			_, _ = fmt.Fprintf(w, `<p>Failed in %s`, templ.EscapeString(res.Phase.String()))
			if res.Fixture != "" {
				_, _ = fmt.Fprintf(w, `, fixture <code>%s</code>`, templ.EscapeString(res.Fixture))
			}
			if res.Step != "" {
				_, _ = fmt.Fprintf(w, `, step <em>%s</em>`, templ.EscapeString(res.Step))
			}
			_, _ = io.WriteString(w, `</p>`)
			for _, failure := range res.Failures {
				_, _ = fmt.Fprintf(w, `<div class="failure">%s</div>`, templ.EscapeString(failure))
			}
		}
		if res.SkipReason != "" {
			_, _ = fmt.Fprintf(w, `<p class="meta">Skipped: %s</p>`, templ.EscapeString(res.SkipReason))
		}
		for _, warning := range res.Warnings {
			_, _ = io.WriteString(w, `<p>`)
			if err := badge(badgeWarning, "teardown").Render(ctx, w); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, ` %s</p>`, templ.EscapeString(warning))
		}

		if len(res.Steps) > 0 {
			_, _ = io.WriteString(w, `<ol class="steps">`)
			for _, step := range res.Steps {
				_, _ = io.WriteString(w, `<li>`)
				if err := badge(statusVariant(step.Status), step.Status.String()).Render(ctx, w); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, ` %s</li>`, templ.EscapeString(step.Name))
			}
			_, _ = io.WriteString(w, `</ol>`)
		}

		if len(res.Logs) > 0 {
			lines := make([]string, len(res.Logs))
			for i, entry := range res.Logs {
				lines[i] = entry.String()
			}
			_, _ = fmt.Fprintf(w, `<details><summary>Logs (%d)</summary>`, len(res.Logs))
			if err := highlightContent(strings.Join(lines, "\n"), "text/plain").Render(ctx, w); err != nil {
				return err
			}
			_, _ = io.WriteString(w, `</details>`)
		}

		raw, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, _ = io.WriteString(w, `<details><summary>Raw result</summary>`)
		if err := highlightContent(string(raw), "application/json").Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, `</details></section>`)
		return err
	})
}

// highlightContent applies syntax highlighting for the given content type.
func highlightContent(content string, contentType string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		lexer := lexers.MatchMimeType(strings.Split(contentType, ";")[0])
		if lexer == nil {
			lexer = lexers.Fallback
		}

		formatter, style := chromaFormatterAndStyle()

		iterator, err := lexer.Tokenise(nil, content)
		if err != nil {
			return err
		}
		return formatter.Format(w, style, iterator)
	})
}

func chromaFormatterAndStyle() (*html.Formatter, *chroma.Style) {
	formatter := html.New(
		html.Standalone(false),
		html.WithClasses(true),
		html.TabWidth(4),
	)

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}
	return formatter, style
}

func chromaStyles() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, "<style>")
		formatter, style := chromaFormatterAndStyle()
		err := formatter.WriteCSS(w, style)
		_, _ = io.WriteString(w, ".chroma { white-space: pre-wrap; }\n")
		_, _ = io.WriteString(w, "</style>")
		return err
	})
}
