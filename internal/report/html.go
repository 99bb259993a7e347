// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// arxivIDPattern matches arXiv identifiers in prose: four digits, a dot,
// four or five digits, and an optional version suffix.
var arxivIDPattern = regexp.MustCompile(`\b\d{4}\.\d{4,5}(?:v\d+)?\b`)

// anchorPattern matches complete anchor elements so autolinking can skip
// IDs that are already inside a link.
var anchorPattern = regexp.MustCompile(`(?s)<a\b[^>]*>.*?</a>`)

// htmlPolicy is the sanitizer applied to every rendered report. It keeps
// standard formatting elements and safe http/https links, and strips
// script elements, inline event handlers, and javascript:, data:, and
// vbscript: URLs. Report HTML that passed through this policy is served
// and emailed without any further sanitization.
var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("target").OnElements("a")
	return p
}()

// ToHTML converts report markdown into sanitized HTML with arXiv IDs
// autolinked to their abstract pages.
func ToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	rendered := string(markdown.ToHTML([]byte(md), p, renderer))

	sanitized := htmlPolicy.Sanitize(rendered)
	return autolinkArxivIDs(sanitized)
}

// autolinkArxivIDs wraps arXiv IDs in links to https://arxiv.org/abs/.
// IDs already inside an anchor are left alone so links never nest.
func autolinkArxivIDs(html string) string {
	var b strings.Builder
	last := 0
	for _, span := range anchorPattern.FindAllStringIndex(html, -1) {
		b.WriteString(linkBareIDs(html[last:span[0]]))
		b.WriteString(html[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(linkBareIDs(html[last:]))
	return b.String()
}

// linkBareIDs replaces every arXiv ID in a link-free HTML segment with an
// anchor to its abstract page.
func linkBareIDs(segment string) string {
	return arxivIDPattern.ReplaceAllStringFunc(segment, func(id string) string {
		return fmt.Sprintf(`<a href="https://arxiv.org/abs/%s" target="_blank" rel="nofollow">%s</a>`, id, id)
	})
}
