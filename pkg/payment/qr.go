// Package payment renders UPI payment intents as QR codes. No money moves
// through here; the customer's payment app reads the code.
package payment

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/example/restaurant/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const pngDataURIPrefix = "data:image/png;base64,"

type QR struct {
	// ImageDataURI is an inline PNG, ready for an <img src>.
	ImageDataURI string `json:"qrCode"`
	PayeeID      string `json:"payeeId"`
	PaymentURI   string `json:"paymentUri"`
}

type Generator struct {
	payeeID    string
	payeeName  string
	currency   string
	moduleSize int
}

func NewGenerator(cfg *config.PaymentConfig) *Generator {
	size := cfg.ModuleSize
	if size <= 0 {
		size = 8
	}
	return &Generator{
		payeeID:    cfg.PayeeID,
		payeeName:  cfg.PayeeName,
		currency:   cfg.Currency,
		moduleSize: size,
	}
}

// PaymentIntent builds the UPI deep link. The output is stable for a given
// order number and amount.
func (g *Generator) PaymentIntent(orderNumber string, amount decimal.Decimal) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=%s&tn=Order %s",
		g.payeeID, g.payeeName, amount.StringFixed(2), g.currency, orderNumber)
}

// Generate renders the payment intent. Only the intent string is byte-stable;
// the PNG encoding may change with the QR library.
func (g *Generator) Generate(orderNumber string, amount decimal.Decimal) (*QR, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, apperrors.Validation("orderNumber is required")
	}
	if amount.IsNegative() {
		return nil, apperrors.Validation("totalAmount must not be negative")
	}

	intent := g.PaymentIntent(orderNumber, amount)

	code, err := qrcode.New(intent, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	png, err := code.PNG(-g.moduleSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}

	return &QR{
		ImageDataURI: pngDataURIPrefix + base64.StdEncoding.EncodeToString(png),
		PayeeID:      g.payeeID,
		PaymentURI:   intent,
	}, nil
}
