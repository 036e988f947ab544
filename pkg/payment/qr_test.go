package payment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/example/restaurant/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator() *Generator {
	return NewGenerator(&config.PaymentConfig{
		PayeeID:    "restaurant@paytm",
		PayeeName:  "Restaurant",
		Currency:   "INR",
		ModuleSize: 8,
	})
}

func TestPaymentIntent(t *testing.T) {
	g := newTestGenerator()

	got := g.PaymentIntent("ORD-1", decimal.RequireFromString("42.5"))
	assert.Equal(t, "upi://pay?pa=restaurant@paytm&pn=Restaurant&am=42.50&cu=INR&tn=Order ORD-1", got)
	assert.Contains(t, got, "am=42.50")
	assert.Contains(t, got, "tn=Order ORD-1")

	assert.Equal(t, got, g.PaymentIntent("ORD-1", decimal.NewFromFloat(42.5)))
}

func TestPaymentIntentAmountFormatting(t *testing.T) {
	g := newTestGenerator()

	tests := []struct {
		amount string
		want   string
	}{
		{"0", "am=0.00&"},
		{"7", "am=7.00&"},
		{"121.5", "am=121.50&"},
		{"19.999", "am=20.00&"},
		{"1234.567", "am=1234.57&"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Contains(t, g.PaymentIntent("X", decimal.RequireFromString(tt.amount)), tt.want)
		})
	}
}

func TestGenerate(t *testing.T) {
	g := newTestGenerator()

	qr, err := g.Generate("ORD-20261016120000-AB12", decimal.RequireFromString("121.50"))
	require.NoError(t, err)

	assert.Equal(t, "restaurant@paytm", qr.PayeeID)
	assert.Contains(t, qr.PaymentURI, "tn=Order ORD-20261016120000-AB12")
	require.True(t, strings.HasPrefix(qr.ImageDataURI, pngDataURIPrefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(qr.ImageDataURI, pngDataURIPrefix))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, b.Dx(), b.Dy())
	assert.Zero(t, b.Dx()%8)
}

func TestGenerateValidation(t *testing.T) {
	g := newTestGenerator()

	_, err := g.Generate("  ", decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = g.Generate("ORD-1", decimal.NewFromInt(-1))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestNewGeneratorDefaultsModuleSize(t *testing.T) {
	g := NewGenerator(&config.PaymentConfig{PayeeID: "a@b"})
	assert.Equal(t, 8, g.moduleSize)
}
