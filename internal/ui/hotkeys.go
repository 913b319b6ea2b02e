package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/oakwood-commons/jqx/internal/config"
)

// DefaultBindings returns the built-in bindings of every panel. The result
// is a fresh copy that overrides may be applied to.
func DefaultBindings() []config.PanelBindings {
	return NewApp(context.Background(), config.Default(), nil, "").Bindings()
}

// HotkeysMarkdown renders one markdown table per panel listing every action,
// its keys and its description.
func HotkeysMarkdown(panels []config.PanelBindings) string {
	var b strings.Builder
	for i, p := range panels {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", p.Name)
		b.WriteString("| Action | Keys | Description |\n")
		b.WriteString("|---|---|---|\n")
		for _, a := range p.Binder.Actions() {
			keys := make([]string, len(a.Keys))
			for j, k := range a.Keys {
				keys[j] = "`" + markdownKey(k) + "`"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", a.Name, strings.Join(keys, " "), escapeCell(a.Description))
		}
	}
	return b.String()
}

// HotkeysHTML renders HotkeysMarkdown as an HTML fragment.
func HotkeysHTML(panels []config.PanelBindings) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(HotkeysMarkdown(panels)))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.Render(doc, renderer))
}

func markdownKey(k string) string {
	switch k {
	case " ":
		return "SPC"
	case "|":
		return `\|`
	}
	return k
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
