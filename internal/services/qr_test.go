package services

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"cafe-pickup-service/internal/domain"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestBuildPickupQR(t *testing.T) {
	pkgs := []*domain.Package{{ID: 1}, {ID: 2}}
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	qr, err := BuildPickupQR(pkgs, "https://pickup.example.com/", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if qr.URL != "https://pickup.example.com/pickup-codes" {
		t.Fatalf("URL = %q", qr.URL)
	}
	if qr.Count != 2 {
		t.Fatalf("Count = %d, want 2", qr.Count)
	}
	if !qr.GeneratedAt.Equal(now) {
		t.Fatalf("GeneratedAt = %v, want %v", qr.GeneratedAt, now)
	}
	if !bytes.HasPrefix(qr.PNG, pngMagic) {
		t.Fatal("image is not a PNG")
	}
}

func TestBuildPickupQRNoPackages(t *testing.T) {
	if _, err := BuildPickupQR(nil, "http://localhost:8080", time.Now()); !errors.Is(err, ErrNoPackages) {
		t.Fatalf("err = %v, want ErrNoPackages", err)
	}
}
