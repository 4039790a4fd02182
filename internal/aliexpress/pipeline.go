package aliexpress

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Rabahbelksier/Offers365/internal/models"
)

// Pipeline sequences one request end to end:
// validate → resolve product id → fetch metadata → generate offers.
// It is stateless; credentials travel with every call.
type Pipeline struct {
	resolver *Resolver
	api      *Client
	scraper  *Scraper
	headless *HeadlessScraper // nil unless the fallback is enabled
	offers   *OfferGenerator
	log      *logrus.Entry
}

// PipelineOptions wires the pipeline's collaborators. Zero values pick
// production defaults; tests point the endpoints at local fakes.
type PipelineOptions struct {
	APIClient    *http.Client // plain client for the affiliate API
	ScrapeClient *http.Client // stealth-wrapped client for page fetches
	APIEndpoint  string
	PageBase     string
	Headless     bool
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	api := NewClient(opts.APIClient, opts.APIEndpoint)
	p := &Pipeline{
		resolver: NewResolver(opts.ScrapeClient),
		api:      api,
		scraper:  NewScraper(opts.ScrapeClient, opts.PageBase),
		offers:   NewOfferGenerator(api),
		log:      logrus.WithField("component", "pipeline"),
	}
	if opts.Headless {
		p.headless = NewHeadlessScraper(opts.PageBase)
	}
	return p
}

// Run processes one URL. Client input errors come back as the sentinel
// errors in errors.go before any network call; once a product id is known
// the pipeline always assembles a response, degrading missing upstream
// data to placeholders.
func (p *Pipeline) Run(ctx context.Context, rawURL string, creds Credentials) (*models.ProductResponse, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrMissingURL
	}
	if !creds.Valid() {
		return nil, ErrMissingCredentials
	}
	if !SupportedDomain(rawURL) {
		return nil, ErrUnsupportedDomain
	}

	productID, err := p.resolver.ProductID(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	p.log.WithField("productId", productID).Info("resolved product")

	meta := p.fetchMetadata(ctx, creds, productID)
	offers := p.offers.GenerateAll(ctx, creds, productID)

	now := time.Now()
	return &models.ProductResponse{
		ID:              strconv.FormatInt(now.UnixMilli(), 10),
		ProductID:       productID,
		ProductMetadata: meta,
		SearchedAt:      now,
		Offers:          offers,
	}, nil
}

// fetchMetadata runs the API strategy, then always runs the scrape pass to
// backfill title/image. Scrape results never overwrite real API fields.
func (p *Pipeline) fetchMetadata(ctx context.Context, creds Credentials, productID string) models.ProductMetadata {
	meta := placeholderMetadata()

	ReportProgress(ctx, "Fetching product details...")
	if apiMeta, err := p.api.ProductDetail(ctx, creds, productID); err != nil {
		p.log.WithError(err).Warn("API detail fetch failed, relying on scrape")
	} else {
		meta = *apiMeta
	}

	ReportProgress(ctx, "Scraping product page...")
	page, err := p.scraper.Fetch(ctx, productID)
	if (err != nil || emptyPage(page)) && p.headless != nil {
		ReportProgress(ctx, "Rendering page in headless browser...")
		page, err = p.headless.Fetch(ctx, productID)
	}
	if err != nil {
		p.log.WithError(err).Warn("page scrape failed")
		return meta
	}

	if page.Title != "" && titleMissing(meta.Title) {
		meta.Title = page.Title
	}
	if page.ImageURL != "" && meta.ImageURL == "" {
		meta.ImageURL = page.ImageURL
	}
	return meta
}

func emptyPage(page *PageData) bool {
	return page == nil || (page.Title == "" && page.ImageURL == "")
}

func titleMissing(title string) bool {
	return title == "" || title == PlaceholderTitle || title == PlaceholderNoTitle
}

func placeholderMetadata() models.ProductMetadata {
	return models.ProductMetadata{
		Title:         PlaceholderTitle,
		Price:         PlaceholderValue,
		OriginalPrice: PlaceholderValue,
		Discount:      ZeroDiscount,
		StoreName:     PlaceholderStore,
	}
}
