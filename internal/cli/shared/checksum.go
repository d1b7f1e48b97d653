package shared

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Digest algorithms accepted in "algo:hex" checksum specs.
const (
	DigestAlgorithmBLAKE3 = "blake3"
	DigestAlgorithmSHA256 = "sha256"
	DigestAlgorithmMD5    = "md5"
)

// VerifyChecksum checks content against a checksum spec of the form
// "algo:hexdigest". An empty spec verifies nothing.
func VerifyChecksum(content []byte, checksum string) error {
	if checksum == "" {
		return nil
	}
	algorithm, digest, err := parseChecksumSpec(checksum)
	if err != nil {
		return err
	}
	computed, err := computeDigest(content, algorithm)
	if err != nil {
		return err
	}
	if computed != digest {
		return errors.New("checksum mismatch")
	}
	return nil
}

func parseChecksumSpec(value string) (string, string, error) {
	raw := strings.TrimSpace(strings.ToLower(value))
	algorithm, digest, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(algorithm) == "" || strings.TrimSpace(digest) == "" {
		return "", "", fmt.Errorf("invalid checksum format %q", value)
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", "", fmt.Errorf("invalid checksum hex %q", value)
	}
	return algorithm, digest, nil
}

func computeDigest(content []byte, algorithm string) (string, error) {
	switch algorithm {
	case DigestAlgorithmBLAKE3:
		return BLAKE3Hex(content), nil
	case DigestAlgorithmSHA256:
		return SHA256Hex(content), nil
	case DigestAlgorithmMD5:
		return MD5Hex(content), nil
	default:
		return "", fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}
}
