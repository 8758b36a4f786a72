package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/models"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	return doc
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		text string
		want float64
		ok   bool
	}{
		{"₹1,29,999", 129999, true},
		{"$49.99", 49.99, true},
		{"1 299.00", 1299, true},
		{"₹", 0, false},
		{"Out of Stock", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, ok := parsePrice(tc.text)
		assert.Equal(t, tc.ok, ok, tc.text)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.text)
		}
	}
}

func TestFirstText_OrderMatters(t *testing.T) {
	doc := parseHTML(t, `<div><p class="b">second</p><p class="a">first</p></div>`)

	text, ok := firstText(doc, []string{"p.a", "p.b"})
	require.True(t, ok)
	assert.Equal(t, "first", text)
}

func TestFirstText_SkipsEmptyNodes(t *testing.T) {
	doc := parseHTML(t, `<div><p class="a">  </p><p class="b">fallback</p></div>`)

	text, ok := firstText(doc, []string{"p.a", "p.b"})
	require.True(t, ok)
	assert.Equal(t, "fallback", text)
}

func TestFirstPrice_SkipsUnparsable(t *testing.T) {
	doc := parseHTML(t, `<div><span class="a">N/A</span><span class="b">₹999</span></div>`)

	price := firstPrice(doc, []string{"span.a", "span.b"})
	require.NotNil(t, price)
	assert.Equal(t, 999.0, *price)
}

func TestCollectOffers_MinLenFilter(t *testing.T) {
	doc := parseHTML(t, `<ul>
		<li class="offer">short</li>
		<li class="offer">10% instant discount on HDFC Bank credit cards</li>
	</ul>`)

	offers := collectOffers(doc, []string{"li.offer"}, 10)
	require.Len(t, offers, 1)
	assert.Equal(t, models.OfferTypeBank, offers[0].Type)
}

func TestClassifyOffer(t *testing.T) {
	assert.Equal(t, models.OfferTypeBank, classifyOffer("5% cashback on Axis Bank cards"))
	assert.Equal(t, models.OfferTypeGeneral, classifyOffer("Free delivery on first order"))
}
