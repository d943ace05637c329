// Package qrcode renders pairing codes as PNG QR images.
package qrcode

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Generator renders QR codes at a fixed size and recovery level
type Generator struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewGenerator creates a generator. errorCorrectionLevel is one of L, M, Q, H.
func NewGenerator(size int, errorCorrectionLevel string) *Generator {
	if size <= 0 {
		size = 256
	}

	var level qrcode.RecoveryLevel
	switch strings.ToUpper(errorCorrectionLevel) {
	case "L":
		level = qrcode.Low
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	return &Generator{size: size, level: level}
}

// PNG encodes content as a PNG image
func (g *Generator) PNG(content string) ([]byte, error) {
	qr, err := qrcode.New(content, g.level)
	if err != nil {
		return nil, fmt.Errorf("create QR code: %w", err)
	}

	png, err := qr.PNG(g.size)
	if err != nil {
		return nil, fmt.Errorf("encode QR PNG: %w", err)
	}
	return png, nil
}
