package id

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Length is the length of an encoded ULID.
const Length = 26

// Crockford base32; excludes I, L, O and U.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

type generator struct {
	mu     sync.Mutex
	lastMs int64
	random [10]byte
	now    func() time.Time
}

var std = &generator{now: time.Now}

// ULID returns a new ULID for the current time.
func ULID() string {
	return std.next()
}

func (g *generator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.lastMs {
		// Same (or earlier) millisecond: keep the timestamp and bump the
		// random part so ordering holds.
		ms = g.lastMs
		if !increment(&g.random) {
			ms++
			_, _ = rand.Read(g.random[:])
		}
	} else {
		_, _ = rand.Read(g.random[:])
	}
	g.lastMs = ms
	return encode(ms, g.random)
}

// increment adds one to b as a big-endian number. It reports false on
// overflow.
func increment(b *[10]byte) bool {
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			return true
		}
	}
	return false
}

func encode(ms int64, random [10]byte) string {
	var out [Length]byte
	for i := 9; i >= 0; i-- {
		out[i] = alphabet[ms&0x1F]
		ms >>= 5
	}

	// 80 random bits become 16 characters, 5 bits at a time.
	var acc uint64
	bits := 0
	pos := 10
	for _, b := range random {
		acc = acc<<8 | uint64(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = alphabet[(acc>>uint(bits))&0x1F]
			pos++
		}
	}
	return string(out[:])
}

// IsValid reports whether s is a well-formed ULID.
func IsValid(s string) bool {
	if len(s) != Length || s[0] > '7' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}

// Time returns the timestamp encoded in a ULID.
func Time(s string) (time.Time, error) {
	if !IsValid(s) {
		return time.Time{}, fmt.Errorf("invalid ULID %q", s)
	}
	var ms int64
	for i := 0; i < 10; i++ {
		ms = ms<<5 | int64(strings.IndexByte(alphabet, s[i]))
	}
	return time.UnixMilli(ms), nil
}
