package aliexpress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rabahbelksier/Offers365/internal/httputil"
)

// rewriteTransport reroutes every request to the given test server while
// keeping the original path/query, and counts requests made.
type rewriteTransport struct {
	srv   *httptest.Server
	calls *atomic.Int32
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	u, err := url.Parse(t.srv.URL)
	if err != nil {
		return nil, err
	}
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return http.DefaultTransport.RoundTrip(req)
}

const productPage = `<!DOCTYPE html>
<html><head>
<meta property="og:title" content="Scraped Gadget Title"/>
<meta property="og:image" content="//ae01.alicdn.com/kf/Spage/gadget.jpg_640x640.jpg"/>
</head><body></body></html>`

func newTestPipeline(t *testing.T, apiHandler http.HandlerFunc) (*Pipeline, *atomic.Int32) {
	t.Helper()

	apiSrv := httptest.NewServer(apiHandler)
	t.Cleanup(apiSrv.Close)

	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	}))
	t.Cleanup(pageSrv.Close)

	calls := &atomic.Int32{}
	scrapeClient := &http.Client{Transport: rewriteTransport{srv: pageSrv, calls: calls}}

	pipe := NewPipeline(PipelineOptions{
		APIClient:    httputil.NewHTTPClient(nil),
		ScrapeClient: scrapeClient,
		APIEndpoint:  apiSrv.URL,
	})
	return pipe, calls
}

func alwaysFailingAPI(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{"error_response":{"code":500,"msg":"upstream down"}}`))
}

func TestRunValidation(t *testing.T) {
	pipe, calls := newTestPipeline(t, alwaysFailingAPI)

	_, err := pipe.Run(context.Background(), "", testCreds)
	assert.ErrorIs(t, err, ErrMissingURL)

	_, err = pipe.Run(context.Background(), "https://www.aliexpress.com/item/42.html", Credentials{})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = pipe.Run(context.Background(), "https://example.com/foo", testCreds)
	assert.ErrorIs(t, err, ErrUnsupportedDomain)

	// Every validation failure short-circuits before any network call.
	assert.Equal(t, int32(0), calls.Load())
}

func TestRunDegradesToPlaceholdersWhenAPIDown(t *testing.T) {
	pipe, _ := newTestPipeline(t, alwaysFailingAPI)

	resp, err := pipe.Run(context.Background(), "https://www.aliexpress.com/item/1005001234567890.html", testCreds)
	require.NoError(t, err)

	assert.Equal(t, "1005001234567890", resp.ProductID)
	assert.NotEmpty(t, resp.ID)
	assert.NotEqual(t, resp.ProductID, resp.ID)
	assert.False(t, resp.SearchedAt.IsZero())

	// Scrape backfills title/image; everything API-owned stays placeholder.
	assert.Equal(t, "Scraped Gadget Title", resp.Title)
	assert.Equal(t, "https://ae01.alicdn.com/kf/Spage/gadget.jpg", resp.ImageURL)
	assert.Equal(t, PlaceholderValue, resp.Price)
	assert.Equal(t, PlaceholderValue, resp.OriginalPrice)
	assert.Equal(t, ZeroDiscount, resp.Discount)
	assert.Equal(t, PlaceholderStore, resp.StoreName)

	require.Len(t, resp.Offers, 8)
	for i, offer := range resp.Offers {
		assert.Equal(t, OfferShapes[i].Name, offer.Name)
		assert.False(t, offer.Success)
		assert.Equal(t, OfferShapes[i].TargetURL(resp.ProductID), offer.Link)
	}
}

func TestRunFullSuccess(t *testing.T) {
	pipe, _ := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.Form.Get("method") {
		case "aliexpress.affiliate.productdetail.get":
			w.Write([]byte(detailResponse))
		case "aliexpress.affiliate.link.generate":
			w.Write([]byte(linkResponse("https://s.click.aliexpress.com/e/_Dfull")))
		default:
			http.Error(w, "unknown method", http.StatusBadRequest)
		}
	})

	resp, err := pipe.Run(context.Background(), "https://www.aliexpress.com/item/1005001234567890.html", testCreds)
	require.NoError(t, err)

	// API metadata wins; the scraped title must not overwrite it.
	assert.Equal(t, "Wireless Earbuds Pro", resp.Title)
	assert.Equal(t, "$20.00 USD", resp.Price)
	assert.Equal(t, "50.0%", resp.Discount)
	assert.Equal(t, "AudioGear Store", resp.StoreName)
	assert.Equal(t, "https://ae01.alicdn.com/kf/Sabc123/earbuds.jpg", resp.ImageURL)

	require.Len(t, resp.Offers, 8)
	for _, offer := range resp.Offers {
		assert.True(t, offer.Success)
		assert.Equal(t, "https://s.click.aliexpress.com/e/_Dfull", offer.Link)
	}
}

func TestRunEmbeddedURLInFreeText(t *testing.T) {
	pipe, _ := newTestPipeline(t, alwaysFailingAPI)

	input := "check this deal https://www.aliexpress.com/item/1005007777777777.html so cheap"
	resp, err := pipe.Run(context.Background(), input, testCreds)
	require.NoError(t, err)
	assert.Equal(t, "1005007777777777", resp.ProductID)
}

func TestRunUnresolvableID(t *testing.T) {
	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer pageSrv.Close()

	calls := &atomic.Int32{}
	pipe := NewPipeline(PipelineOptions{
		APIClient:    httputil.NewHTTPClient(nil),
		ScrapeClient: &http.Client{Transport: rewriteTransport{srv: pageSrv, calls: calls}},
		APIEndpoint:  pageSrv.URL,
	})

	_, err := pipe.Run(context.Background(), "https://www.aliexpress.com/wholesale?SearchText=drone", testCreds)
	assert.ErrorIs(t, err, ErrNoProductID)
}
