package aliexpress

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/Rabahbelksier/Offers365/internal/httputil"
)

// Domains recognized as AliExpress-family product links.
var supportedDomains = []string{
	"aliexpress.com",
	"alix.live",
	"s.click.aliexpress.com",
}

// SupportedDomain reports whether the input contains one of the recognized
// AliExpress domains. Checked before any network call is made.
func SupportedDomain(input string) bool {
	for _, d := range supportedDomains {
		if strings.Contains(input, d) {
			return true
		}
	}
	return false
}

// urlPattern matches the first URL-shaped substring pointing at a
// recognized domain inside arbitrary text.
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]*(?:aliexpress\.com|alix\.live)[^\s"'<>]*`)

// idPatterns is ordered most-specific-first; the first match wins.
// The ordering is a policy decision: ambiguous URLs that match several
// patterns always resolve through the earliest one.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]productIds=(\d+)`),
	regexp.MustCompile(`[?&]productId=(\d+)`),
	regexp.MustCompile(`/item/(\d+)\.html`),
	regexp.MustCompile(`/item/(\d+)`),
	regexp.MustCompile(`/product/(\d+)`),
	regexp.MustCompile(`/i/(\d+)`),
	regexp.MustCompile(`item/(\d+)`),
}

// bareIDPattern is the last-resort heuristic: any standalone 10-20 digit
// run in the raw input. Known to misfire on phone/order numbers; kept as
// documented behavior.
var bareIDPattern = regexp.MustCompile(`\b(\d{10,20})\b`)

// Resolver normalizes arbitrary user input into a canonical product id.
type Resolver struct {
	client *http.Client
}

func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = httputil.NewHTTPClient(nil)
	}
	return &Resolver{client: client}
}

// ExtractURL pulls the first recognized URL out of free text. When nothing
// matches, the trimmed input itself is treated as the candidate URL so that
// redirect resolution still gets a chance on unrecognized shortlinks.
func ExtractURL(text string) string {
	if m := urlPattern.FindString(text); m != "" {
		return m
	}
	return strings.TrimSpace(text)
}

// ResolveRedirects follows the redirect chain of candidate and returns the
// final landing URL. On any network failure the original candidate is kept.
func (r *Resolver) ResolveRedirects(ctx context.Context, candidate string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate, nil)
	if err != nil {
		return candidate
	}
	for k, v := range httputil.BrowserHeaders() {
		req.Header[k] = v
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return candidate
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<14))

	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return candidate
}

// extractID runs the ordered pattern list against s.
func extractID(s string) (string, bool) {
	for _, p := range idPatterns {
		if m := p.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ProductID resolves raw user input into a product id: extract a candidate
// URL, follow redirects, then try the pattern list against the resolved URL
// first and the original input second, so a failed redirect resolution does
// not lose an id that was already present. Falls back to a bare 10-20 digit
// run anywhere in the input.
func (r *Resolver) ProductID(ctx context.Context, input string) (string, error) {
	candidate := ExtractURL(input)

	ReportProgress(ctx, "Resolving link...")
	resolved := r.ResolveRedirects(ctx, candidate)

	if id, ok := extractID(resolved); ok {
		return id, nil
	}
	if id, ok := extractID(input); ok {
		return id, nil
	}
	if m := bareIDPattern.FindStringSubmatch(input); m != nil {
		return m[1], nil
	}
	return "", ErrNoProductID
}
