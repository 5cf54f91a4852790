package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// shortHashLength is the number of hex characters kept by ShortHash.
const shortHashLength = 12

func SHA256(input string) string {
	return SHA256Bytes([]byte(input))
}

func SHA256Bytes(input []byte) string {
	hash := sha256.Sum256(input)
	return hex.EncodeToString(hash[:])
}

func SHA256Reader(reader io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, reader); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// ShortHash returns a truncated SHA256 of the input, used as a stable ID for compiled sources.
func ShortHash(input string) string {
	return SHA256(input)[:shortHashLength]
}
