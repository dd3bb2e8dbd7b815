package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"cafe-pickup-service/internal/domain"
)

// ErrNoPackages: QR generation with nothing to collect is a distinct
// outcome, not an empty image.
var ErrNoPackages = errors.New("no packages to present")

// The mobile pickup listing lives at this path; the QR is a navigation aid,
// not a data payload, so its content is the same regardless of which
// packages exist.
const pickupListingPath = "/pickup-codes"

const qrImageSize = 256

// PickupQR is the scannable image plus its human-readable summary.
type PickupQR struct {
	PNG         []byte
	URL         string
	Count       int
	GeneratedAt time.Time
}

// BuildPickupQR encodes the pickup listing URL for the given live packages.
func BuildPickupQR(pkgs []*domain.Package, baseURL string, now time.Time) (*PickupQR, error) {
	if len(pkgs) == 0 {
		return nil, ErrNoPackages
	}

	url := strings.TrimRight(baseURL, "/") + pickupListingPath
	png, err := qrcode.Encode(url, qrcode.Low, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("encode pickup qr: %w", err)
	}

	return &PickupQR{
		PNG:         png,
		URL:         url,
		Count:       len(pkgs),
		GeneratedAt: now,
	}, nil
}
