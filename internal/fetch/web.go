package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	re2 "github.com/wasilibs/go-re2"

	"github.com/bridgewarden/bridgewarden/internal/retry"
)

// ReadableText asks WebFetcher to return the page's visible text content
// with markup stripped; Markdown asks for an HTML-to-Markdown conversion
// with nav/footer/script/style chrome dropped; RawText asks for the
// unmodified response body.
const (
	ModeReadableText = "readable_text"
	ModeMarkdown     = "markdown"
	ModeRawText      = "raw_text"
)

// defaultMaxRedirects caps the redirect chain a WebFetcher will follow;
// each hop is re-checked against the host allowlist and SSRF guard.
const defaultMaxRedirects = 3

// WebFetcher performs outbound HTTP(S) fetches with an SSRF-resistant
// dialer: every hostname the client connects to — including each hop of
// a redirect chain — is resolved and checked against private, loopback,
// link-local, and unique-local ranges before the connection is made.
// Grounded on internal/tools/fetch.FetchTool's HTTP client construction
// and stripHTML/htmlToMarkdown helpers.
type WebFetcher struct {
	hostAllowed func(host string) bool
	maxBytes    int64
	timeout     time.Duration
	userAgent   string
}

// NewWebFetcher returns a WebFetcher that only connects to hosts for
// which hostAllowed returns true. The predicate is evaluated fresh on
// every request (including each redirect hop) rather than frozen into a
// static set at construction, so a caller can combine a configured
// domain allowlist with dynamically-approved sources (internal/approvals)
// without recreating the fetcher.
func NewWebFetcher(hostAllowed func(host string) bool, maxBytes int64, timeout time.Duration, userAgent string) *WebFetcher {
	return &WebFetcher{hostAllowed: hostAllowed, maxBytes: maxBytes, timeout: timeout, userAgent: userAgent}
}

// StaticAllowlist returns a hostAllowed predicate matching exact
// lowercased hostnames in hosts, for callers that only need a fixed set.
func StaticAllowlist(hosts []string) func(host string) bool {
	set := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		set[strings.ToLower(h)] = true
	}
	return func(host string) bool { return set[strings.ToLower(host)] }
}

// Result is what Fetch returns: the raw bytes, the fetched (possibly
// redirected) URL, and the content type reported by the server.
type Result struct {
	Body        []byte
	FinalURL    string
	ContentType string
}

// Fetch retrieves rawURL, following up to defaultMaxRedirects redirects,
// re-validating the SSRF guard at every hop, and returns its body decoded
// per mode. mode ModeReadableText strips HTML tags down to visible text;
// ModeRawText returns the body unmodified.
func (f *WebFetcher) Fetch(ctx context.Context, rawURL, mode string) (Result, error) {
	if mode == "" {
		mode = ModeReadableText
	}

	parsed, err := f.checkedURL(rawURL)
	if err != nil {
		return Result{}, err
	}

	client := &http.Client{
		Timeout: f.timeout,
		Transport: &http.Transport{
			DialContext: f.guardedDial,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= defaultMaxRedirects {
				return fmt.Errorf("fetch: too many redirects (max %d)", defaultMaxRedirects)
			}
			if _, err := f.checkedURL(req.URL.String()); err != nil {
				return fmt.Errorf("fetch: redirect blocked: %w", err)
			}
			return nil
		},
	}

	fetchOnce := func() (Result, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
		if err != nil {
			return Result{}, fmt.Errorf("fetch: building request: %w", err)
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "text/html,text/plain,*/*")

		resp, err := client.Do(req)
		if err != nil {
			return Result{}, fmt.Errorf("fetch: request failed: %w", err)
		}
		defer resp.Body.Close()

		limit := io.LimitReader(resp.Body, f.maxBytes+1)
		body, err := io.ReadAll(limit)
		if err != nil {
			return Result{}, fmt.Errorf("fetch: reading response: %w", err)
		}
		if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
			return Result{}, fmt.Errorf("fetch: response exceeds %d byte cap", f.maxBytes)
		}

		return Result{Body: body, FinalURL: resp.Request.URL.String(), ContentType: resp.Header.Get("Content-Type")}, nil
	}

	result, err := retry.DoWithRetry(ctx, fetchOnce, retry.Config{MaxAttempts: 3})
	if err != nil {
		return Result{}, err
	}

	if strings.Contains(result.ContentType, "html") {
		switch mode {
		case ModeReadableText:
			result.Body = []byte(extractReadableText(string(result.Body)))
		case ModeMarkdown:
			result.Body = []byte(htmlToMarkdown(string(result.Body)))
		}
	}

	return result, nil
}

// checkedURL validates scheme, host allowlist membership, and resolves
// the hostname to confirm none of its addresses fall in a disallowed
// range.
func (f *WebFetcher) checkedURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parsing url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("fetch: unsupported scheme %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if !f.hostAllowed(host) {
		return nil, fmt.Errorf("fetch: host %q is not in the allowlist", host)
	}
	if err := CheckSSRF(host); err != nil {
		return nil, err
	}

	return parsed, nil
}

// SSRFError marks an error produced by CheckSSRF, so callers (the
// gateway) can distinguish "this target is disallowed" from an
// unrelated fetch failure and map it to SSRF_BLOCKED rather than
// FETCH_FAILED.
type SSRFError struct {
	Host string
	Addr string
}

func (e *SSRFError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("fetch: %q resolves to a disallowed address %s", e.Host, e.Addr)
	}
	return fmt.Sprintf("fetch: %q is a disallowed address", e.Host)
}

// CheckSSRF reports whether host is itself a literal disallowed address,
// or resolves to one. It is exported so the gateway can reject an
// obvious SSRF target before running the approval gate, and reused by
// checkedURL so the guard is never duplicated.
func CheckSSRF(host string) error {
	if ip := net.ParseIP(host); ip != nil {
		if isDisallowedIP(ip) {
			return &SSRFError{Host: host}
		}
		return nil
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		return fmt.Errorf("fetch: resolving %q: %w", host, err)
	}
	for _, addr := range addrs {
		if ip := net.ParseIP(addr); ip != nil && isDisallowedIP(ip) {
			return &SSRFError{Host: host, Addr: addr}
		}
	}
	return nil
}

// guardedDial re-checks the destination IP at connection time, closing
// the TOCTOU window between checkedURL's DNS lookup and the actual dial.
func (f *WebFetcher) guardedDial(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("fetch: splitting dial address: %w", err)
	}
	if ip := net.ParseIP(host); ip != nil && isDisallowedIP(ip) {
		return nil, &SSRFError{Host: host, Addr: host}
	}

	dialer := &net.Dialer{Timeout: f.timeout}
	return dialer.DialContext(ctx, network, net.JoinHostPort(host, port))
}

// isDisallowedIP reports whether ip falls in a loopback, link-local,
// RFC1918 private, or IPv6 unique-local range.
func isDisallowedIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 10 ||
			(ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31) ||
			(ip4[0] == 192 && ip4[1] == 168) ||
			(ip4[0] == 169 && ip4[1] == 254)
	}
	// IPv6 unique local addresses, fc00::/7.
	return len(ip) == net.IPv6len && (ip[0]&0xfe) == 0xfc
}

var (
	scriptOrStyleRE = re2.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)\s*>`)
	anyTagRE        = re2.MustCompile(`<[^>]+>`)
	whitespaceRE    = re2.MustCompile(`\s+`)
)

// extractReadableText reduces an HTML document to its visible text,
// mirroring internal/tools/fetch.FetchTool.stripHTML's approach but via
// goquery for more reliable tag-boundary handling.
func extractReadableText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		stripped := scriptOrStyleRE.ReplaceAllString(html, "")
		stripped = anyTagRE.ReplaceAllString(stripped, " ")
		return strings.TrimSpace(whitespaceRE.ReplaceAllString(stripped, " "))
	}

	doc.Find("script, style").Remove()
	text := doc.Text()
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}

var (
	horizontalWhitespaceRE = re2.MustCompile(`[ \t]+`)
	extraNewlinesRE        = re2.MustCompile(`\n{3,}`)
)

// htmlToMarkdown converts html to Markdown, dropping navigation chrome
// (nav/footer/aside/script/style) so the converted page keeps only its
// content, mirroring internal/tools/fetch.FetchTool.htmlToMarkdown's
// converter options.
func htmlToMarkdown(html string) string {
	opts := &md.Options{
		HeadingStyle:    "atx",
		CodeBlockStyle:  "fenced",
		EmDelimiter:     "*",
		StrongDelimiter: "**",
	}
	converter := md.NewConverter("", true, opts)
	converter.Keep("a", "img")
	converter.AddRules(md.Rule{
		Filter: []string{"nav", "footer", "aside", "script", "style"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			empty := ""
			return &empty
		},
	})

	out, err := converter.ConvertString(html)
	if err != nil {
		return extractReadableText(html)
	}

	out = horizontalWhitespaceRE.ReplaceAllString(out, " ")
	out = extraNewlinesRE.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
