package aliexpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Rabahbelksier/Offers365/internal/httputil"
	"github.com/Rabahbelksier/Offers365/internal/models"
)

// DefaultEndpoint is the affiliate API sync gateway.
const DefaultEndpoint = "https://api-sg.aliexpress.com/sync"

const (
	methodProductDetail = "aliexpress.affiliate.productdetail.get"
	methodLinkGenerate  = "aliexpress.affiliate.link.generate"
)

// Placeholder values used when upstream data is unavailable.
const (
	PlaceholderValue   = "N/A"
	PlaceholderStore   = "Unknown Store"
	PlaceholderTitle   = "Unknown Product"
	PlaceholderNoTitle = "Unable to extract title"
	ZeroDiscount       = "0%"
)

// Credentials are caller-held affiliate API credentials, passed explicitly
// through the pipeline on every request. Nothing is held process-wide.
type Credentials struct {
	AppKey     string
	AppSecret  string
	TrackingID string
}

func (c Credentials) Valid() bool {
	return c.AppKey != "" && c.AppSecret != "" && c.TrackingID != ""
}

// Client talks to the affiliate API with signed form requests.
type Client struct {
	client   *http.Client
	endpoint string
	log      *logrus.Entry
}

func NewClient(httpClient *http.Client, endpoint string) *Client {
	if httpClient == nil {
		httpClient = httputil.NewHTTPClient(nil)
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		client:   httpClient,
		endpoint: endpoint,
		log:      logrus.WithField("component", "api"),
	}
}

type apiError struct {
	Code   json.Number `json:"code"`
	Msg    string      `json:"msg"`
	SubMsg string      `json:"sub_msg"`
}

func (e *apiError) Error() string {
	if e.SubMsg != "" {
		return fmt.Sprintf("api error %s: %s (%s)", e.Code, e.Msg, e.SubMsg)
	}
	return fmt.Sprintf("api error %s: %s", e.Code, e.Msg)
}

// call signs and sends one API request, returning the raw response body.
func (c *Client) call(ctx context.Context, method string, creds Credentials, extra map[string]string) ([]byte, error) {
	params := map[string]string{
		"method":      method,
		"app_key":     creds.AppKey,
		"sign_method": "sha256",
		"timestamp":   strconv.FormatInt(time.Now().UnixMilli(), 10),
		"format":      "json",
		"v":           "2.0",
	}
	for k, v := range extra {
		params[k] = v
	}
	params["sign"] = Sign(params, creds.AppSecret)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.AffiliateAPIHeaders() {
		req.Header[k] = v
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		ErrorResponse *apiError `json:"error_response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if envelope.ErrorResponse != nil {
		c.log.WithField("method", method).Debug("gateway returned error_response")
		return nil, envelope.ErrorResponse
	}
	return body, nil
}

type apiProduct struct {
	ProductTitle           string      `json:"product_title"`
	TargetSalePrice        string      `json:"target_sale_price"`
	TargetOriginalPrice    string      `json:"target_original_price"`
	Discount               string      `json:"discount"`
	ShopName               string      `json:"shop_name"`
	ShopURL                string      `json:"shop_url"`
	EvaluateRate           string      `json:"evaluate_rate"`
	FirstLevelCategoryName string      `json:"first_level_category_name"`
	CommissionRate         string      `json:"commission_rate"`
	LastestVolume          json.Number `json:"lastest_volume"`
	ProductMainImageURL    string      `json:"product_main_image_url"`
}

type detailEnvelope struct {
	Response struct {
		RespResult struct {
			Result struct {
				Products struct {
					Product []apiProduct `json:"product"`
				} `json:"products"`
			} `json:"result"`
		} `json:"resp_result"`
	} `json:"aliexpress_affiliate_productdetail_get_response"`
}

const detailFields = "product_title,target_sale_price,target_original_price," +
	"discount,shop_name,shop_url,evaluate_rate,first_level_category_name," +
	"commission_rate,lastest_volume,product_main_image_url"

// ProductDetail fetches metadata for productID through the affiliate API.
// Any failure (network, envelope error, empty product list) aborts the
// strategy without retry; the caller falls back to scraping.
func (c *Client) ProductDetail(ctx context.Context, creds Credentials, productID string) (*models.ProductMetadata, error) {
	body, err := c.call(ctx, methodProductDetail, creds, map[string]string{
		"product_ids":     productID,
		"fields":          detailFields,
		"target_currency": "USD",
		"target_language": "EN",
		"tracking_id":     creds.TrackingID,
	})
	if err != nil {
		return nil, err
	}

	var env detailEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse product detail: %w", err)
	}
	products := env.Response.RespResult.Result.Products.Product
	if len(products) == 0 {
		return nil, fmt.Errorf("product %s not found in API response", productID)
	}

	return metadataFromAPI(&products[0]), nil
}

func metadataFromAPI(p *apiProduct) *models.ProductMetadata {
	meta := &models.ProductMetadata{
		Title:          strings.TrimSpace(p.ProductTitle),
		Price:          formatPrice(p.TargetSalePrice),
		OriginalPrice:  formatPrice(p.TargetOriginalPrice),
		Discount:       normalizeDiscount(p.Discount, p.TargetOriginalPrice, p.TargetSalePrice),
		StoreName:      p.ShopName,
		Rating:         p.EvaluateRate,
		Category:       p.FirstLevelCategoryName,
		CommissionRate: p.CommissionRate,
		ShopURL:        normalizeShopURL(p.ShopURL),
		ImageURL:       NormalizeImageURL(p.ProductMainImageURL),
	}
	if meta.Title == "" {
		meta.Title = PlaceholderTitle
	}
	if meta.StoreName == "" {
		meta.StoreName = PlaceholderStore
	}
	if v := p.LastestVolume.String(); v != "" && v != "0" {
		meta.Orders = v + " sold"
	}
	return meta
}

// formatPrice renders an API price string as "$<amount> USD".
func formatPrice(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || priceNumber.FindString(raw) == "" {
		return PlaceholderValue
	}
	raw = strings.TrimPrefix(raw, "$")
	return "$" + strings.TrimSuffix(raw, " USD") + " USD"
}

var priceNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parsePrice extracts the numeric amount from strings like "$40.00 USD".
func parsePrice(s string) (float64, bool) {
	m := priceNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ComputeDiscount derives a discount percentage from original and sale
// prices, rounded to one decimal. Unparseable or zero originals yield "0%".
func ComputeDiscount(original, sale string) string {
	o, okO := parsePrice(original)
	s, okS := parsePrice(sale)
	if !okO || !okS || o <= 0 || s > o {
		return ZeroDiscount
	}
	return fmt.Sprintf("%.1f%%", (o-s)/o*100)
}

// normalizeDiscount prefers the API's own discount field, computing one
// from the prices only when the field is absent.
func normalizeDiscount(apiDiscount, original, sale string) string {
	d := strings.TrimSpace(apiDiscount)
	if d == "" || d == "0" || d == "0%" {
		return ComputeDiscount(original, sale)
	}
	if !strings.HasSuffix(d, "%") {
		d += "%"
	}
	return d
}

var storePath = regexp.MustCompile(`/store/(\d+)`)

// normalizeShopURL collapses /store/<id>/... paths to the canonical short
// mobile store URL; anything else passes through protocol-normalized.
func normalizeShopURL(raw string) string {
	if raw == "" {
		return ""
	}
	if m := storePath.FindStringSubmatch(raw); m != nil {
		return "https://m.aliexpress.com/store/" + m[1]
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}

type linkEnvelope struct {
	Response struct {
		RespResult struct {
			Result struct {
				PromotionLinks struct {
					PromotionLink []struct {
						PromotionLink string `json:"promotion_link"`
						SourceValue   string `json:"source_value"`
					} `json:"promotion_link"`
				} `json:"promotion_links"`
			} `json:"result"`
		} `json:"resp_result"`
	} `json:"aliexpress_affiliate_link_generate_response"`
}

// GenerateLink asks the affiliate API for a tracking link for sourceURL.
// Returns the empty string when the API answers without any link.
func (c *Client) GenerateLink(ctx context.Context, creds Credentials, sourceURL string) (string, error) {
	body, err := c.call(ctx, methodLinkGenerate, creds, map[string]string{
		"promotion_link_type": "0",
		"source_values":       sourceURL,
		"tracking_id":         creds.TrackingID,
	})
	if err != nil {
		return "", err
	}

	var env linkEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("parse link response: %w", err)
	}
	links := env.Response.RespResult.Result.PromotionLinks.PromotionLink
	if len(links) == 0 {
		return "", nil
	}
	return links[0].PromotionLink, nil
}
