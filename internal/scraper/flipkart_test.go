package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/models"
)

const flipkartProductHTML = `<html><body>
	<span class="B_NuCI">Vivo X100 Pro (Asteroid Black, 256 GB)</span>
	<div class="_30jeq3 _16Jk6d">₹89,999</div>
	<div class="_3I9_wc _2p6lqe">₹94,999</div>
	<div class="_3Ay6sb _31Dcoz">5% off</div>
	<li class="_3j4Zjq">10% instant discount on HDFC Bank cards</li>
	<li class="_3j4Zjq">Free delivery</li>
</body></html>`

func TestFlipkartExtract(t *testing.T) {
	doc := parseHTML(t, flipkartProductHTML)

	snap := flipkartExtractor{}.Extract(doc)

	assert.Equal(t, "Vivo X100 Pro (Asteroid Black, 256 GB)", snap.Name)

	require.NotNil(t, snap.Price)
	assert.Equal(t, 89999.0, *snap.Price)

	require.NotNil(t, snap.OriginalPrice)
	assert.Equal(t, 94999.0, *snap.OriginalPrice)

	assert.Equal(t, "5% off", snap.Discount)

	require.NotNil(t, snap.Stock)
	assert.True(t, snap.Stock.InStock)

	require.Len(t, snap.Offers, 2)
	assert.Equal(t, models.OfferTypeBank, snap.Offers[0].Type)
	assert.Equal(t, models.OfferTypeGeneral, snap.Offers[1].Type)
}

func TestFlipkartExtract_OutOfStock(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<span class="B_NuCI">Vivo X100 Pro</span>
		<div>This item is currently Out of Stock</div>
	</body></html>`)

	snap := flipkartExtractor{}.Extract(doc)

	require.NotNil(t, snap.Stock)
	assert.False(t, snap.Stock.InStock)
	assert.Nil(t, snap.Price)
}

func TestFlipkartExtract_EmptyPage(t *testing.T) {
	doc := parseHTML(t, `<html><body></body></html>`)

	snap := flipkartExtractor{}.Extract(doc)

	assert.Empty(t, snap.Name)
	assert.Nil(t, snap.Price)
	require.NotNil(t, snap.Stock)
	assert.True(t, snap.Stock.InStock)
}
