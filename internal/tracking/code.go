// Package tracking generates the unique codes embedded into pickup QR labels.
package tracking

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// Prefix identifies a pickup tracking code on the wire.
	Prefix = "PICKUP"

	randomLen = 9
	base36    = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var codeRe = regexp.MustCompile(`^PICKUP_\d+_[0-9a-z]{9}$`)

// NewCode returns a fresh tracking code of the form PICKUP_<unix-nanos>_<random>.
//
// The timestamp component makes collisions across seconds impossible in
// practice; the random suffix covers concurrent creates within the same
// nanosecond tick. Uniqueness is still enforced by the database index, so
// callers retry on a duplicate.
func NewCode(now time.Time) (string, error) {
	suffix, err := randomBase36(randomLen)
	if err != nil {
		return "", fmt.Errorf("generate tracking suffix: %w", err)
	}
	return fmt.Sprintf("%s_%d_%s", Prefix, now.UnixNano(), suffix), nil
}

// IsValid reports whether the value looks like a tracking code we issued.
func IsValid(code string) bool {
	return codeRe.MatchString(code)
}

// IssuedAt extracts the embedded creation timestamp from a tracking code.
func IssuedAt(code string) (time.Time, error) {
	if !IsValid(code) {
		return time.Time{}, fmt.Errorf("malformed tracking code %q", code)
	}
	parts := strings.SplitN(code, "_", 3)
	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing tracking code timestamp: %w", err)
	}
	return time.Unix(0, nanos).UTC(), nil
}

func randomBase36(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(length)
	for _, c := range buf {
		b.WriteByte(base36[int(c)%len(base36)])
	}
	return b.String(), nil
}
