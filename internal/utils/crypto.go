// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

const (
	mockAddressPrefix = "ALGO"
	txIDPrefix        = "TX"
	txIDLength        = 13
)

func GenerateRandomString(length int, charset string) (string, error) {
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateMockAddress returns a short placeholder account address such as
// ALGO7F3KQ2ZD, used for seeded creators and owners.
func GenerateMockAddress() string {
	suffix, err := GenerateRandomString(8, "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(fmt.Sprintf("generate mock address: %v", err))
	}
	return mockAddressPrefix + suffix
}

// GenerateTxID fabricates a transaction id from the call parameters and a
// random nonce, e.g. TXK3V7Q2M4ZJX6A.
func GenerateTxID(parts ...string) string {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		panic(fmt.Sprintf("generate tx nonce: %v", err))
	}

	hasher := sha3.New256()
	hasher.Write([]byte(strings.Join(parts, "|")))
	hasher.Write([]byte(time.Now().UTC().Format(time.RFC3339Nano)))
	hasher.Write(nonce)

	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(hasher.Sum(nil))
	return txIDPrefix + encoded[:txIDLength]
}

// FormatAddress shortens an address for display, e.g. "ALGO7F...K2ZD".
func FormatAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
