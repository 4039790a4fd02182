package aliexpress

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Rabahbelksier/Offers365/internal/models"
)

// OfferShape pairs a display name with a target URL template. The {id}
// placeholder is substituted with the product id.
type OfferShape struct {
	Name     string
	Template string
}

// TargetURL builds the concrete promotion URL for a product.
func (s OfferShape) TargetURL(productID string) string {
	return strings.ReplaceAll(s.Template, "{id}", productID)
}

// OfferShapes is the fixed offer table. Order is part of the contract:
// responses always carry these eight, in this order.
var OfferShapes = [8]OfferShape{
	{"Coins Discount", "https://m.aliexpress.com/p/coin-index/index.html?productIds={id}"},
	{"Direct Link", "https://www.aliexpress.com/item/{id}.html?sourceType=620"},
	{"Super Deals", "https://www.aliexpress.com/item/{id}.html?sourceType=562"},
	{"Limited Offers", "https://www.aliexpress.com/item/{id}.html?sourceType=561"},
	{"Big Save", "https://www.aliexpress.com/item/{id}.html?sourceType=680"},
	{"Bonus Deals", "https://www.aliexpress.com/item/{id}.html?sourceType=562&channel=bonus"},
	{"Flash Deals", "https://www.aliexpress.com/item/{id}.html?sourceType=570"},
	{"Bundle Deals", "https://www.aliexpress.com/ssr/300000512/BundleDeals2?disableNav=YES&pha_manifest=ssr&_immersiveMode=true&productIds={id}"},
}

const shareRedirectBase = "https://star.aliexpress.com/share/share.htm"

// shareWrapURL wraps a target through the share-redirect endpoint. The
// affiliate API resolves through the wrapper when it rejects the plain
// promotion URL.
func shareWrapURL(target string) string {
	return shareRedirectBase + "?platform=AE&businessType=ProductDetail&redirectUrl=" + url.QueryEscape(target)
}

// sourceCandidates is the per-offer retry policy: an ordered list of
// source URLs, first success wins. Changing retry behavior means changing
// this list, nothing else.
func sourceCandidates(target string) []string {
	return []string{target, shareWrapURL(target)}
}

// OfferGenerator turns a product id into the eight tracked offers.
type OfferGenerator struct {
	api *Client
	log *logrus.Entry
}

func NewOfferGenerator(api *Client) *OfferGenerator {
	return &OfferGenerator{
		api: api,
		log: logrus.WithField("component", "offers"),
	}
}

// GenerateAll resolves every offer shape sequentially and always returns
// exactly len(OfferShapes) items in table order. A shape whose generation
// fails on all candidates keeps its raw target URL and success=false.
func (g *OfferGenerator) GenerateAll(ctx context.Context, creds Credentials, productID string) []models.OfferItem {
	offers := make([]models.OfferItem, 0, len(OfferShapes))
	for i, shape := range OfferShapes {
		ReportProgress(ctx, fmt.Sprintf("Generating offer %d/%d: %s", i+1, len(OfferShapes), shape.Name))

		target := shape.TargetURL(productID)
		link, ok := g.generate(ctx, creds, shape.Name, target)
		if !ok {
			link = target
		}
		offers = append(offers, models.OfferItem{Name: shape.Name, Link: link, Success: ok})
	}
	return offers
}

func (g *OfferGenerator) generate(ctx context.Context, creds Credentials, name, target string) (string, bool) {
	for _, src := range sourceCandidates(target) {
		link, err := g.api.GenerateLink(ctx, creds, src)
		if err != nil {
			g.log.WithError(err).WithField("offer", name).Warn("link generation attempt failed")
			continue
		}
		if link != "" {
			return link, true
		}
	}
	return "", false
}
