package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyCommission(t *testing.T) {
	c := New(0.20)
	assert.Equal(t, 120.00, c.Apply(100.0))
	assert.Equal(t, 12.00, c.Apply(10.0))
	assert.Equal(t, 0.00, c.Apply(0))
}

func TestBaseBacksOutCommission(t *testing.T) {
	c := New(0.20)
	assert.Equal(t, 100.00, c.Base(120.00))
	assert.Equal(t, 20.00, c.Portion(120.00))
}

func TestBasePlusPortionEqualsPrice(t *testing.T) {
	c := New(0.20)
	for _, price := range []float64{120.00, 59.99, 0.01, 1234.56, 999999.99} {
		assert.InDelta(t, price, c.Base(price)+c.Portion(price), 0.001, "price %v", price)
	}
}

func TestRoundTripWithinRounding(t *testing.T) {
	c := New(0.20)
	for _, x := range []float64{0, 1, 99.99, 100, 333.33, 1000.01} {
		assert.InDelta(t, x, c.Base(c.Apply(x)), 0.01, "x %v", x)
	}
}

func TestRound2HalfUp(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.225))
	assert.Equal(t, 2.00, Round2(1.995))
	assert.Equal(t, 0.13, Round2(0.125))
}

func TestFormatAmountFixedSeparator(t *testing.T) {
	assert.Equal(t, "20.00", FormatAmount(20))
	assert.Equal(t, "0.50", FormatAmount(0.5))
	assert.Equal(t, "1234.57", FormatAmount(1234.567))
}

func TestDefaultRate(t *testing.T) {
	assert.Equal(t, 0.20, New(0).Rate)
	assert.Equal(t, 0.10, New(0.10).Rate)
}
