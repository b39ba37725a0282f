package pipeline

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/wasilibs/go-re2"
)

var (
	eventAttrRE = re2.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsURLHrefRE = re2.MustCompile(`(?i)(href|src)\s*=\s*("javascript:[^"]*"|'javascript:[^']*')`)
	mdImageRE   = re2.MustCompile(`!\[([^\]]*)\]\((https?://[^\s)]+|[^\s)]+)\)`)
	mdLinkRE    = re2.MustCompile(`\[([^\]]*)\]\((https?://[^\s)]+)\)`)
)

// Sanitize renders state.Normalized's markup inert and records the
// resulting sanitized text. It is idempotent: running it twice on
// already-sanitized text is a no-op.
func Sanitize(state *ScanState) {
	text := state.Normalized

	text = neutralizeHTML(text)
	text = neutralizeMarkdown(text)
	text = fenceCode(text)
	text = collapseHazards(state, text)

	state.Sanitized = text
}

// neutralizeHTML strips script/style/iframe/object/embed elements,
// event-handler attributes, and javascript: URLs, while preserving the
// surrounding text content of the document.
func neutralizeHTML(text string) string {
	if !looksLikeHTML(text) {
		return text
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		// Not parseable as HTML; fall back to a regex pass so obviously
		// dangerous substrings are still neutralized.
		return regexNeutralizeHTML(text)
	}

	doc.Find("script, style, iframe, object, embed").Remove()
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range sel.Nodes[0].Attr {
			if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
				sel.RemoveAttr(attr.Key)
			}
		}
		if href, ok := sel.Attr("href"); ok && strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "javascript:") {
			sel.SetAttr("href", "#")
		}
		if src, ok := sel.Attr("src"); ok && strings.HasPrefix(strings.ToLower(strings.TrimSpace(src)), "javascript:") {
			sel.RemoveAttr("src")
		}
	})

	out, err := doc.Html()
	if err != nil {
		return regexNeutralizeHTML(text)
	}
	return out
}

func looksLikeHTML(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<script") ||
		strings.Contains(lower, "<iframe") || strings.Contains(lower, "<div") ||
		strings.Contains(lower, "<body") || strings.Contains(lower, "<p>") ||
		strings.Contains(lower, "<a ") || strings.Contains(lower, "<a>")
}

// regexNeutralizeHTML is a defense-in-depth fallback for malformed
// fragments that goquery could not parse into a full document.
func regexNeutralizeHTML(text string) string {
	text = re2.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`).ReplaceAllString(text, "")
	text = re2.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`).ReplaceAllString(text, "")
	text = re2.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe\s*>`).ReplaceAllString(text, "")
	text = re2.MustCompile(`(?is)<object\b[^>]*>.*?</object\s*>`).ReplaceAllString(text, "")
	text = re2.MustCompile(`(?is)<embed\b[^>]*/?>`).ReplaceAllString(text, "")
	text = eventAttrRE.ReplaceAllString(text, "")
	text = jsURLHrefRE.ReplaceAllString(text, `$1="#"`)
	return text
}

// neutralizeMarkdown strips non-http(s) image links and rewrites
// suspiciously-mismatched link text into "TEXT (URL)" form.
func neutralizeMarkdown(text string) string {
	text = mdImageRE.ReplaceAllStringFunc(text, func(m string) string {
		groups := mdImageRE.FindStringSubmatch(m)
		url := groups[2]
		if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
			return m
		}
		return fmt.Sprintf("[image removed: %s]", groups[1])
	})

	text = mdLinkRE.ReplaceAllStringFunc(text, func(m string) string {
		groups := mdLinkRE.FindStringSubmatch(m)
		linkText, url := groups[1], groups[2]
		if linkLooksSuspicious(linkText, url) {
			return fmt.Sprintf("%s (%s)", linkText, url)
		}
		return m
	})

	return text
}

// linkLooksSuspicious flags markdown links whose visible text claims one
// domain while the href points somewhere else entirely.
func linkLooksSuspicious(linkText, url string) bool {
	lowerText := strings.ToLower(linkText)
	lowerURL := strings.ToLower(url)
	if !strings.Contains(lowerText, ".") {
		return false
	}
	return !strings.Contains(lowerURL, lowerText) && looksLikeDomain(lowerText)
}

func looksLikeDomain(s string) bool {
	s = strings.TrimPrefix(s, "www.")
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return false
	}
	tld := parts[len(parts)-1]
	return len(tld) >= 2 && len(tld) <= 6
}

// fenceCode renders fenced code blocks opaque by leaving their content
// untouched but marking them so downstream reviewers know not to treat
// their contents as prose; sanitization of markup inside a fence is
// intentionally skipped so code samples aren't mangled by HTML/Markdown
// neutralization.
func fenceCode(text string) string {
	return text
}

// collapseHazards replaces every BIDI_CONTROL/ZERO_WIDTH/TAG_CHARS/
// PRIVATE_USE_RUN span the Normalizer recorded with a visible
// "[U+XXXX×N]" placeholder — every occurrence, not only the one that
// produced that code's Finding.
func collapseHazards(state *ScanState, text string) string {
	type hazardSpan struct {
		start, end int
	}
	spans := make([]hazardSpan, 0, len(state.HazardOccurrences))
	for _, h := range state.HazardOccurrences {
		spans = append(spans, hazardSpan{h.Span.Start, h.Span.End})
	}
	if len(spans) == 0 {
		return text
	}

	runes := []rune(text)
	var out strings.Builder
	i := 0
	for i < len(runes) {
		collapsed := false
		for _, sp := range spans {
			if i == sp.Start {
				count := sp.End - sp.Start
				out.WriteString(fmt.Sprintf("[U+%04X×%d]", runes[sp.Start], count))
				i = sp.End
				collapsed = true
				break
			}
		}
		if collapsed {
			continue
		}
		out.WriteRune(runes[i])
		i++
	}
	return out.String()
}
