package shared

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// SHA256Hex returns the lowercase hex digest of content.
func SHA256Hex(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// BLAKE3Hex returns the lowercase hex digest of content.
func BLAKE3Hex(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// MD5Hex returns the lowercase hex digest of content. Kept for checksum
// specs published by sources that still hand out md5 sums.
func MD5Hex(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}
