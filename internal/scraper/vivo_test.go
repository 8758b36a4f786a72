package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vivoProductHTML = `<html><body>
	<h1 class="product-name">vivo V30 Pro</h1>
	<span class="price-value">₹41,999</span>
	<span class="original-price">₹46,999</span>
	<div class="offer-item">No cost EMI available on ICICI Bank cards</div>
</body></html>`

func TestVivoExtract(t *testing.T) {
	doc := parseHTML(t, vivoProductHTML)

	snap := vivoExtractor{}.Extract(doc)

	assert.Equal(t, "vivo V30 Pro", snap.Name)

	require.NotNil(t, snap.Price)
	assert.Equal(t, 41999.0, *snap.Price)

	require.NotNil(t, snap.OriginalPrice)
	assert.Equal(t, 46999.0, *snap.OriginalPrice)

	// (46999-41999)/46999*100 = 10.63..., округляется до 11
	assert.Equal(t, "11% off", snap.Discount)

	require.NotNil(t, snap.Stock)
	assert.True(t, snap.Stock.InStock)

	require.Len(t, snap.Offers, 1)
}

func TestVivoExtract_OutOfStock(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<h1 class="product-name">vivo V30 Pro</h1>
		<div class="stock-status">Out of Stock</div>
	</body></html>`)

	snap := vivoExtractor{}.Extract(doc)

	require.NotNil(t, snap.Stock)
	assert.False(t, snap.Stock.InStock)
	assert.Equal(t, "Out of Stock", snap.Stock.Text)
}

func TestVivoExtract_NoDiscountWithoutBothPrices(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<h1 class="product-name">vivo V30 Pro</h1>
		<span class="price-value">₹41,999</span>
	</body></html>`)

	snap := vivoExtractor{}.Extract(doc)

	require.NotNil(t, snap.Price)
	assert.Empty(t, snap.Discount)
}
