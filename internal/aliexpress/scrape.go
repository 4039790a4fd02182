package aliexpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Rabahbelksier/Offers365/internal/httputil"
)

// DefaultPageBase is where public product pages live.
const DefaultPageBase = "https://www.aliexpress.com"

// PageData is what a scrape pass can produce. The scrape strategy never
// yields price/discount/store fields; those belong to the API strategy.
type PageData struct {
	Title    string
	ImageURL string
}

// Scraper extracts title and image from the public product HTML page.
// It is the backfill strategy: always run after the API pass, allowed to
// fill only fields the API left absent or placeholder.
type Scraper struct {
	client *http.Client
	base   string
}

func NewScraper(client *http.Client, base string) *Scraper {
	if client == nil {
		client = httputil.NewHTTPClient(nil)
	}
	if base == "" {
		base = DefaultPageBase
	}
	return &Scraper{client: client, base: base}
}

// Fetch downloads and scrapes the product page for productID.
func (s *Scraper) Fetch(ctx context.Context, productID string) (*PageData, error) {
	pageURL := fmt.Sprintf("%s/item/%s.html", s.base, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.BrowserHeaders() {
		req.Header[k] = v
	}

	resp, err := httputil.DoWithRetry(s.client, req, 2)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	return ParsePage(body)
}

// ParsePage runs the extraction cascade over raw product-page HTML:
// runParams blob, then og/twitter meta, then known selectors, then the
// page title; image falls back to the first asset-folder <img>.
func ParsePage(body []byte) (*PageData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	data := &PageData{}

	if rp := extractRunParams(body); rp != nil {
		data.Title = rp.title()
		data.ImageURL = rp.image()
	}
	if data.Title == "" {
		data.Title = extractMetaTitle(doc)
	}
	if data.Title == "" {
		data.Title = extractSelectorTitle(doc)
	}
	if data.Title == "" {
		data.Title = extractPageTitle(doc)
	}
	if data.ImageURL == "" {
		data.ImageURL = extractMetaImage(doc)
	}
	if data.ImageURL == "" {
		data.ImageURL = extractAssetImage(doc)
	}

	data.Title = CleanTitle(data.Title)
	data.ImageURL = NormalizeImageURL(data.ImageURL)

	if data.Title == "" && data.ImageURL == "" {
		return nil, fmt.Errorf("no title or image found in page")
	}
	return data, nil
}

// runParams mirrors the two inline-JSON layouts AliExpress has shipped:
// the componentized one and the older module one.
type runParams struct {
	Data struct {
		ProductInfoComponent struct {
			Subject string `json:"subject"`
		} `json:"productInfoComponent"`
		ImageComponent struct {
			ImagePathList []string `json:"imagePathList"`
		} `json:"imageComponent"`
		TitleModule struct {
			Subject string `json:"subject"`
		} `json:"titleModule"`
		ImageModule struct {
			ImagePathList []string `json:"imagePathList"`
		} `json:"imageModule"`
	} `json:"data"`
}

func (rp *runParams) title() string {
	if s := rp.Data.ProductInfoComponent.Subject; s != "" {
		return s
	}
	return rp.Data.TitleModule.Subject
}

func (rp *runParams) image() string {
	if l := rp.Data.ImageComponent.ImagePathList; len(l) > 0 {
		return l[0]
	}
	if l := rp.Data.ImageModule.ImagePathList; len(l) > 0 {
		return l[0]
	}
	return ""
}

// extractRunParams walks the script elements looking for the
// window.runParams assignment and parses the assigned object.
func extractRunParams(body []byte) *runParams {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var rp *runParams
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if rp != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			text := n.FirstChild.Data
			if idx := strings.Index(text, "window.runParams"); idx != -1 {
				if blob := sliceJSONObject(text[idx:]); blob != "" {
					var parsed runParams
					if err := json.Unmarshal([]byte(blob), &parsed); err == nil {
						rp = &parsed
						return
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rp
}

// sliceJSONObject returns the first balanced {...} block in s.
func sliceJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '"':
			if i == 0 || s[i-1] != '\\' {
				inString = !inString
			}
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func extractMetaTitle(doc *goquery.Document) string {
	for _, sel := range []string{`meta[property="og:title"]`, `meta[name="twitter:title"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var titleSelectors = []string{
	`h1[data-pl="product-title"]`,
	"h1.product-title-text",
	".product-title-text",
	"h1",
}

func extractSelectorTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func extractPageTitle(doc *goquery.Document) string {
	t := strings.TrimSpace(doc.Find("title").First().Text())
	for _, suffix := range []string{"- AliExpress", "| AliExpress", "- aliexpress"} {
		if i := strings.Index(t, suffix); i > 0 {
			t = strings.TrimSpace(t[:i])
		}
	}
	return t
}

func extractMetaImage(doc *goquery.Document) string {
	for _, sel := range []string{`meta[property="og:image"]`, `meta[name="twitter:image"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// extractAssetImage is the last resort: the first image served from the
// /kf/ asset folder on the CDN.
func extractAssetImage(doc *goquery.Document) string {
	var found string
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok {
			return true
		}
		if strings.Contains(src, "/kf/") {
			found = src
			return false
		}
		return true
	})
	return found
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&quot;", `"`,
	"&lt;", "<",
	"&gt;", ">",
)

// CleanTitle decodes the common HTML entities and truncates to 250 chars.
func CleanTitle(title string) string {
	title = strings.TrimSpace(entityReplacer.Replace(title))
	if r := []rune(title); len(r) > 250 {
		title = string(r[:250])
	}
	return title
}

var thumbSuffix = regexp.MustCompile(`(\.(?:jpe?g|png|webp))_.*$`)

// NormalizeImageURL makes scheme-relative URLs absolute and strips the
// thumbnail-size suffixes the CDN appends ("....jpg_220x220.jpg").
func NormalizeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	return thumbSuffix.ReplaceAllString(raw, "$1")
}
