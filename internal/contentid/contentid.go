// Package contentid computes stable content digests for program files.
// Digest equality is the sole basis for exact-duplicate classification.
package contentid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Digest streams the file through SHA-256 and returns the hex digest. The
// file is read in bounded chunks via io.Copy, so memory stays flat even for
// very large program bodies.
func Digest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestBytes hashes in-memory content with the same algorithm as Digest.
// Used when a rewritten body has not been flushed to disk yet.
func DigestBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
