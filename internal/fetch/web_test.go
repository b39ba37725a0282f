package fetch

import (
	"errors"
	"net"
	"strings"
	"testing"
)

func TestIsDisallowedIP_BlocksPrivateAndLoopback(t *testing.T) {
	blocked := []string{
		"127.0.0.1", "10.0.0.5", "172.16.0.1", "172.31.255.255",
		"192.168.1.1", "169.254.1.1", "0.0.0.0", "::1", "fc00::1",
	}
	for _, addr := range blocked {
		ip := net.ParseIP(addr)
		if ip == nil {
			t.Fatalf("failed to parse test IP %s", addr)
		}
		if !isDisallowedIP(ip) {
			t.Errorf("expected %s to be disallowed", addr)
		}
	}
}

func TestIsDisallowedIP_AllowsPublicAddresses(t *testing.T) {
	allowed := []string{"8.8.8.8", "93.184.216.34", "1.1.1.1"}
	for _, addr := range allowed {
		ip := net.ParseIP(addr)
		if ip == nil {
			t.Fatalf("failed to parse test IP %s", addr)
		}
		if isDisallowedIP(ip) {
			t.Errorf("expected %s to be allowed", addr)
		}
	}
}

func TestCheckSSRF_RejectsLiteralLoopbackAddress(t *testing.T) {
	err := CheckSSRF("127.0.0.1")
	if err == nil {
		t.Fatal("expected a loopback literal to be rejected")
	}
	var ssrfErr *SSRFError
	if !errors.As(err, &ssrfErr) {
		t.Errorf("expected an *SSRFError, got %T: %v", err, err)
	}
}

func TestCheckSSRF_AllowsLiteralPublicAddress(t *testing.T) {
	if err := CheckSSRF("8.8.8.8"); err != nil {
		t.Errorf("expected a public literal address to be allowed, got %v", err)
	}
}

func TestCheckedURL_RejectsNonHTTPScheme(t *testing.T) {
	f := NewWebFetcher(StaticAllowlist([]string{"example.com"}), 1<<20, 0, "bridgewarden-test/1.0")
	if _, err := f.checkedURL("ftp://example.com/file"); err == nil {
		t.Error("expected ftp scheme to be rejected")
	}
}

func TestCheckedURL_RejectsHostNotInAllowlist(t *testing.T) {
	f := NewWebFetcher(StaticAllowlist([]string{"example.com"}), 1<<20, 0, "bridgewarden-test/1.0")
	if _, err := f.checkedURL("https://not-allowed.example.org/x"); err == nil {
		t.Error("expected a host outside the allowlist to be rejected")
	}
}

func TestExtractReadableText_StripsScriptAndTags(t *testing.T) {
	html := `<html><body><script>alert(1)</script><p>Hello <b>World</b></p></body></html>`
	text := extractReadableText(html)
	if text != "Hello World" {
		t.Errorf("got %q", text)
	}
}

func TestHtmlToMarkdown_ConvertsHeadingsAndDropsChrome(t *testing.T) {
	html := `<html><body><nav>skip me</nav><h1>Title</h1><p>Some <strong>bold</strong> text.</p></body></html>`
	out := htmlToMarkdown(html)
	if strings.Contains(out, "skip me") {
		t.Errorf("expected nav content to be dropped, got %q", out)
	}
	if !strings.Contains(out, "# Title") {
		t.Errorf("expected an atx heading, got %q", out)
	}
	if !strings.Contains(out, "**bold**") {
		t.Errorf("expected bold emphasis markers, got %q", out)
	}
}
