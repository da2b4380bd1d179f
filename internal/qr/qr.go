// Package qr renders the scan-page QR image that ships with every
// production item.
package qr

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Size is the side length in pixels of generated QR PNGs.
const Size = 256

// ScanURL builds the public scan-page URL a QR code points at.
func ScanURL(base, productID string) string {
	return strings.TrimRight(base, "/") + "/" + productID
}

// Build encodes url into a PNG with medium error correction.
func Build(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
