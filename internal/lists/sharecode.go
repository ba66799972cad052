package lists

import (
	"context"
	"crypto/rand"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// ShareCodeAlphabet leaves out look-alikes: 0 O o 1 l I
	ShareCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"
	ShareCodeLength   = 6

	// DefaultShareCodeAttempts bounds the collision retry loop
	DefaultShareCodeAttempts = 5
)

// CodeChecker reports whether a share code is already taken
type CodeChecker interface {
	ShareCodeExists(ctx context.Context, code string) (bool, error)
}

// CodeCheckerFunc adapts a function to CodeChecker
type CodeCheckerFunc func(ctx context.Context, code string) (bool, error)

// ShareCodeExists calls f
func (f CodeCheckerFunc) ShareCodeExists(ctx context.Context, code string) (bool, error) {
	return f(ctx, code)
}

// ShareCodeAllocator hands out short public codes for published lists
type ShareCodeAllocator struct {
	checker     CodeChecker
	generate    func() string
	maxAttempts int
	logger      *logrus.Logger
}

// NewShareCodeAllocator creates an allocator backed by checker (nil means nothing is ever taken)
func NewShareCodeAllocator(checker CodeChecker, logger *logrus.Logger) *ShareCodeAllocator {
	return &ShareCodeAllocator{
		checker:     checker,
		generate:    GenerateShareCode,
		maxAttempts: DefaultShareCodeAttempts,
		logger:      logger,
	}
}

// Allocate returns a code. Each attempt performs one existence check; once
// the attempts run out the last candidate is accepted anyway.
func (a *ShareCodeAllocator) Allocate(ctx context.Context) string {
	var code string
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		code = a.generate()
		if a.checker == nil {
			return code
		}

		taken, err := a.checker.ShareCodeExists(ctx, code)
		if err != nil {
			a.logger.WithError(err).WithField("attempt", attempt).Warn("Share code check failed, accepting candidate")
			return code
		}
		if !taken {
			return code
		}

		a.logger.WithFields(logrus.Fields{
			"code":    code,
			"attempt": attempt,
		}).Debug("Share code collision")
	}

	a.logger.WithFields(logrus.Fields{
		"code":     code,
		"attempts": a.maxAttempts,
	}).Warn("Share code attempts exhausted, accepting last candidate")
	return code
}

// GenerateShareCode draws ShareCodeLength characters uniformly from ShareCodeAlphabet
func GenerateShareCode() string {
	n := len(ShareCodeAlphabet)
	// Largest multiple of n below 256; bytes above it are rejected to avoid modulo bias
	limit := 256 - 256%n

	code := make([]byte, 0, ShareCodeLength)
	buf := make([]byte, ShareCodeLength*2)
	for len(code) < ShareCodeLength {
		rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, ShareCodeAlphabet[int(b)%n])
			if len(code) == ShareCodeLength {
				break
			}
		}
	}
	return string(code)
}

// IsValidShareCode reports whether code has the right length and alphabet
func IsValidShareCode(code string) bool {
	if len(code) != ShareCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(ShareCodeAlphabet, r) {
			return false
		}
	}
	return true
}
