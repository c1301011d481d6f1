// Package keys builds the storage keys of cached acoustic results.
package keys

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/seaenv/internal/core/geo"
)

// Record identifies one cached result: the transmitter and receiver
// positions, the frequency in Hz and the time the result is valid for.
type Record struct {
	Tx   geo.Point
	Rx   geo.Point
	Freq float64
	Time time.Time
}

// Canonical renders r with fixed field order and shortest round-trip floats.
// Equal records give equal strings; -0 and +0 are folded.
func (r Record) Canonical() string {
	var b strings.Builder
	b.Grow(96)
	for i, f := range [...]float64{r.Tx.Lat, r.Tx.Lon, r.Tx.Depth, r.Rx.Lat, r.Rx.Lon, r.Rx.Depth, r.Freq} {
		if i > 0 {
			b.WriteByte('|')
		}
		if f == 0 {
			f = 0
		}
		if math.IsInf(f, 1) {
			b.WriteByte('*')
			continue
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	b.WriteByte('|')
	if r.Time.IsZero() {
		b.WriteByte('*')
	} else {
		b.WriteString(strconv.FormatInt(r.Time.UTC().UnixNano(), 10))
	}
	return b.String()
}

// Key returns "<kind>:f=<freq>:h=<xxhash64>" for r. The frequency stays
// readable so operators can scan one band.
func Key(kind string, r Record) string {
	canon := r.Canonical()
	sum := xxhash.Sum64String(canon)
	freq := sanitizeForKey(strconv.FormatFloat(r.Freq, 'g', -1, 64))
	return fmt.Sprintf("%s:f=%s:h=%016x", sanitizeKind(strings.TrimSpace(kind)), freq, sum)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '.' || r == '_' || r == '-' || r == '+':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func sanitizeKind(s string) string {
	if s == "" {
		return "result"
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
