package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
)

const (
	pickupCodeLength = 6
	maxCodeAttempts  = 100
)

// ErrCodeExhausted means generation gave up after the retry bound without
// finding a free code. The caller must fail its creation operation; it must
// never assign a colliding code.
var ErrCodeExhausted = errors.New("could not generate a unique pickup code")

// CodeExists probes whether a candidate code is already assigned to a live
// package.
type CodeExists func(ctx context.Context, code string) (bool, error)

// GeneratePickupCode draws uniform random 6-digit codes until one passes the
// uniqueness probe, bounded by maxCodeAttempts.
//
// The probe and the eventual insert are not atomic; a concurrent generator
// can win the same code. The store's unique constraint turns that narrow
// race into a creation error instead of a silent collision.
func GeneratePickupCode(ctx context.Context, exists CodeExists) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := randomDigits(pickupCodeLength)

		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("generate pickup code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

func randomDigits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + rand.IntN(10))
	}
	return string(b)
}
