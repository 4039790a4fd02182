package aliexpress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rabahbelksier/Offers365/internal/httputil"
)

var testCreds = Credentials{AppKey: "12345", AppSecret: "secret", TrackingID: "offers365"}

const detailResponse = `{
	"aliexpress_affiliate_productdetail_get_response": {
		"resp_result": {
			"resp_code": 200,
			"result": {
				"current_record_count": 1,
				"products": {
					"product": [{
						"product_title": "Wireless Earbuds Pro",
						"target_sale_price": "20.00",
						"target_original_price": "40.00",
						"discount": "",
						"shop_name": "AudioGear Store",
						"shop_url": "//www.aliexpress.com/store/912345678/search",
						"evaluate_rate": "96.5%",
						"first_level_category_name": "Consumer Electronics",
						"commission_rate": "7.0%",
						"lastest_volume": 3021,
						"product_main_image_url": "//ae01.alicdn.com/kf/Sabc123/earbuds.jpg_220x220.jpg"
					}]
				}
			}
		}
	}
}`

func TestProductDetailParsesEnvelope(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.Form {
			gotForm[k] = r.Form.Get(k)
		}
		w.Write([]byte(detailResponse))
	}))
	defer srv.Close()

	c := NewClient(httputil.NewHTTPClient(nil), srv.URL)
	meta, err := c.ProductDetail(context.Background(), testCreds, "1005001234567890")
	require.NoError(t, err)

	assert.Equal(t, "Wireless Earbuds Pro", meta.Title)
	assert.Equal(t, "$20.00 USD", meta.Price)
	assert.Equal(t, "$40.00 USD", meta.OriginalPrice)
	// Empty API discount field: computed from the two prices.
	assert.Equal(t, "50.0%", meta.Discount)
	assert.Equal(t, "AudioGear Store", meta.StoreName)
	assert.Equal(t, "96.5%", meta.Rating)
	assert.Equal(t, "Consumer Electronics", meta.Category)
	assert.Equal(t, "7.0%", meta.CommissionRate)
	assert.Equal(t, "3021 sold", meta.Orders)
	// Store path collapsed to the short mobile store URL.
	assert.Equal(t, "https://m.aliexpress.com/store/912345678", meta.ShopURL)
	// Image protocol-normalized and stripped of the thumbnail suffix.
	assert.Equal(t, "https://ae01.alicdn.com/kf/Sabc123/earbuds.jpg", meta.ImageURL)

	// The request itself must be signed and carry the fixed parameters.
	assert.Equal(t, "aliexpress.affiliate.productdetail.get", gotForm["method"])
	assert.Equal(t, "USD", gotForm["target_currency"])
	assert.Equal(t, "EN", gotForm["target_language"])
	assert.Equal(t, "2.0", gotForm["v"])
	assert.Equal(t, "offers365", gotForm["tracking_id"])

	unsigned := map[string]string{}
	for k, v := range gotForm {
		if k != "sign" {
			unsigned[k] = v
		}
	}
	assert.Equal(t, Sign(unsigned, testCreds.AppSecret), gotForm["sign"])
}

func TestProductDetailAPIDiscountPreferred(t *testing.T) {
	body := `{
		"aliexpress_affiliate_productdetail_get_response": {
			"resp_result": {"result": {"products": {"product": [{
				"product_title": "Thing",
				"target_sale_price": "8.00",
				"target_original_price": "10.00",
				"discount": "18"
			}]}}}
		}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(httputil.NewHTTPClient(nil), srv.URL)
	meta, err := c.ProductDetail(context.Background(), testCreds, "42")
	require.NoError(t, err)
	assert.Equal(t, "18%", meta.Discount)
}

func TestProductDetailErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error_response":{"code":25,"msg":"Insufficient isv permissions","sub_msg":"app is suspended"}}`))
	}))
	defer srv.Close()

	c := NewClient(httputil.NewHTTPClient(nil), srv.URL)
	_, err := c.ProductDetail(context.Background(), testCreds, "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient isv permissions")
}

func TestProductDetailEmptyProductList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"aliexpress_affiliate_productdetail_get_response":{"resp_result":{"result":{"products":{"product":[]}}}}}`))
	}))
	defer srv.Close()

	c := NewClient(httputil.NewHTTPClient(nil), srv.URL)
	_, err := c.ProductDetail(context.Background(), testCreds, "42")
	assert.Error(t, err)
}

func TestGenerateLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "aliexpress.affiliate.link.generate", r.Form.Get("method"))
		assert.Equal(t, "0", r.Form.Get("promotion_link_type"))
		assert.Equal(t, "https://www.aliexpress.com/item/42.html?sourceType=620", r.Form.Get("source_values"))
		w.Write([]byte(`{"aliexpress_affiliate_link_generate_response":{"resp_result":{"result":{"promotion_links":{"promotion_link":[{"promotion_link":"https://s.click.aliexpress.com/e/_Dabc","source_value":"x"}]}}}}}`))
	}))
	defer srv.Close()

	c := NewClient(httputil.NewHTTPClient(nil), srv.URL)
	link, err := c.GenerateLink(context.Background(), testCreds, "https://www.aliexpress.com/item/42.html?sourceType=620")
	require.NoError(t, err)
	assert.Equal(t, "https://s.click.aliexpress.com/e/_Dabc", link)
}

func TestGenerateLinkEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"aliexpress_affiliate_link_generate_response":{"resp_result":{"result":{"promotion_links":{"promotion_link":[]}}}}}`))
	}))
	defer srv.Close()

	c := NewClient(httputil.NewHTTPClient(nil), srv.URL)
	link, err := c.GenerateLink(context.Background(), testCreds, "https://www.aliexpress.com/item/42.html")
	require.NoError(t, err)
	assert.Empty(t, link)
}

func TestComputeDiscount(t *testing.T) {
	cases := []struct {
		original, sale, want string
	}{
		{"$40.00 USD", "$20.00 USD", "50.0%"},
		{"$10.00 USD", "$8.00 USD", "20.0%"},
		{"$29.99 USD", "$19.99 USD", "33.3%"},
		{"N/A", "$20.00 USD", "0%"},
		{"$40.00 USD", "N/A", "0%"},
		{"$0.00 USD", "$0.00 USD", "0%"},
		{"$20.00 USD", "$40.00 USD", "0%"}, // sale above original
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ComputeDiscount(tc.original, tc.sale), "original=%s sale=%s", tc.original, tc.sale)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$7.99 USD", formatPrice("7.99"))
	assert.Equal(t, "$7.99 USD", formatPrice("$7.99 USD"))
	assert.Equal(t, PlaceholderValue, formatPrice(""))
	assert.Equal(t, PlaceholderValue, formatPrice("N/A"))
}
