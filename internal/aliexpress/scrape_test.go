package aliexpress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rabahbelksier/Offers365/internal/httputil"
)

const runParamsPage = `<!DOCTYPE html>
<html><head><title>ignored</title></head><body>
<script>
window.runParams = {
	"data": {
		"productInfoComponent": {"subject": "USB-C Hub &amp; Adapter 7-in-1"},
		"imageComponent": {"imagePathList": ["//ae01.alicdn.com/kf/Sdef456/hub.jpg_640x640.jpg"]}
	},
	"csrfToken": "abc"
};
</script>
</body></html>`

const metaTagPage = `<!DOCTYPE html>
<html><head>
<meta property="og:title" content="Mechanical Keyboard 87 Keys"/>
<meta property="og:image" content="https://ae01.alicdn.com/kf/Skey789/keyboard.png"/>
<title>something else</title>
</head><body></body></html>`

const titleOnlyPage = `<!DOCTYPE html>
<html><head><title>Mini Drone With Camera - AliExpress 110</title></head>
<body><img src="/static/logo.svg"/><img src="//ae01.alicdn.com/kf/Simg1/drone.webp_350x350.webp"/></body></html>`

func TestParsePageRunParams(t *testing.T) {
	data, err := ParsePage([]byte(runParamsPage))
	require.NoError(t, err)
	assert.Equal(t, "USB-C Hub & Adapter 7-in-1", data.Title)
	assert.Equal(t, "https://ae01.alicdn.com/kf/Sdef456/hub.jpg", data.ImageURL)
}

func TestParsePageMetaTags(t *testing.T) {
	data, err := ParsePage([]byte(metaTagPage))
	require.NoError(t, err)
	assert.Equal(t, "Mechanical Keyboard 87 Keys", data.Title)
	assert.Equal(t, "https://ae01.alicdn.com/kf/Skey789/keyboard.png", data.ImageURL)
}

func TestParsePageTitleAndAssetImageFallback(t *testing.T) {
	data, err := ParsePage([]byte(titleOnlyPage))
	require.NoError(t, err)
	// Page title with the marketplace suffix stripped.
	assert.Equal(t, "Mini Drone With Camera", data.Title)
	// First /kf/ asset image wins; the non-asset logo is skipped.
	assert.Equal(t, "https://ae01.alicdn.com/kf/Simg1/drone.webp", data.ImageURL)
}

func TestParsePageSelectorTitle(t *testing.T) {
	page := `<html><head></head><body><h1 class="product-title-text">  Solar Garden Light  </h1></body></html>`
	data, err := ParsePage([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Solar Garden Light", data.Title)
}

func TestParsePageNothingFound(t *testing.T) {
	_, err := ParsePage([]byte(`<html><head></head><body><p>captcha</p></body></html>`))
	assert.Error(t, err)
}

func TestScraperFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item/1005001234567890.html", r.URL.Path)
		w.Write([]byte(metaTagPage))
	}))
	defer srv.Close()

	s := NewScraper(httputil.NewHTTPClient(nil), srv.URL)
	data, err := s.Fetch(context.Background(), "1005001234567890")
	require.NoError(t, err)
	assert.Equal(t, "Mechanical Keyboard 87 Keys", data.Title)
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, `Cable "Pro" <2m> & more`, CleanTitle(`Cable &quot;Pro&quot; &lt;2m&gt; &amp; more`))

	long := strings.Repeat("a", 300)
	assert.Len(t, CleanTitle(long), 250)

	assert.Equal(t, "trimmed", CleanTitle("  trimmed \n"))
}

func TestNormalizeImageURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"//ae01.alicdn.com/kf/Sx/y.jpg", "https://ae01.alicdn.com/kf/Sx/y.jpg"},
		{"https://ae01.alicdn.com/kf/Sx/y.jpg_220x220.jpg", "https://ae01.alicdn.com/kf/Sx/y.jpg"},
		{"//ae01.alicdn.com/kf/Sx/y.jpeg_960x960q75.jpg_.avif", "https://ae01.alicdn.com/kf/Sx/y.jpeg"},
		{"https://ae01.alicdn.com/kf/Sx/y.png", "https://ae01.alicdn.com/kf/Sx/y.png"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeImageURL(tc.in), "input=%s", tc.in)
	}
}

func TestSliceJSONObject(t *testing.T) {
	got := sliceJSONObject(`window.runParams = {"a": {"b": "}"}, "c": 1}; more`)
	assert.Equal(t, `{"a": {"b": "}"}, "c": 1}`, got)

	assert.Empty(t, sliceJSONObject("no braces here"))
	assert.Empty(t, sliceJSONObject("{unbalanced"))
}
