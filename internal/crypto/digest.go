package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/argon2"
)

const (
	SchemeSHA256   = "sha256"
	SchemeArgon2ID = "argon2id"

	DigestLen = 32
)

// Argon2id parameters are fixed constants rather than tuned per machine:
// the same password must produce the same digest on every run.
const (
	argon2Iterations  uint32 = 3
	argon2MemoryKiB   uint32 = 64 * 1024
	argon2Parallelism uint8  = 4
)

// argon2Pepper is a fixed application constant, not a per-credential salt.
// Changing it invalidates every stored digest.
var argon2Pepper = []byte("notemap/credential/v1")

var ErrUnknownScheme = errors.New("crypto: unknown digest scheme")

// Digest is a pure one-way function from secret bytes to a fixed-length
// digest. Implementations must be deterministic so stored digests remain
// comparable to freshly computed ones.
type Digest func(secret []byte) []byte

func SHA256(secret []byte) []byte {
	sum := sha256.Sum256(secret)
	return sum[:]
}

func Argon2ID(secret []byte) []byte {
	return argon2.IDKey(secret, argon2Pepper, argon2Iterations, argon2MemoryKiB, argon2Parallelism, DigestLen)
}

func ForScheme(name string) (Digest, error) {
	switch name {
	case SchemeSHA256:
		return SHA256, nil
	case SchemeArgon2ID:
		return Argon2ID, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}

// Wipe zeroes transient secret material once a digest has been taken.
func Wipe(buf []byte) {
	memguard.WipeBytes(buf)
}
