// Package cryptox derives and verifies password hashes.
//
// Hashes are PBKDF2-HMAC-SHA512 with 10000 iterations and a 64 byte key.
// Salts are 32 random bytes. Both hash and salt are stored hex encoded,
// and the hex text of the salt (not its decoded bytes) is the KDF salt
// input, which keeps stored credentials compatible with existing records.
package cryptox

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 32
	Iterations = 10000
	KeyLength  = 64
)

// PBKDF2Hasher implements credential derivation and verification.
// The zero value is ready to use.
type PBKDF2Hasher struct{}

// NewPBKDF2Hasher returns a hasher with the stored-credential parameters.
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{}
}

// Derive generates a fresh salt and returns the hex encoded hash and salt
// for password.
func (PBKDF2Hasher) Derive(password string) (hash, salt string, err error) {
	salt, err = common.MakeRandHexString(SaltSize)
	if err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	key := derive(password, salt)
	defer common.WipeByteArray(key)
	return hex.EncodeToString(key), salt, nil
}

// Verify reports whether password matches the stored hash and salt. The
// stored hash must be the exact lowercase hex text Derive produces.
// Malformed stored values never match, but the derivation still runs so the
// cost of a failed check does not depend on the stored record.
func (PBKDF2Hasher) Verify(password, hash, salt string) bool {
	key := derive(password, salt)
	defer common.WipeByteArray(key)

	if len(hash) != KeyLength*2 || len(salt) != SaltSize*2 {
		return false
	}
	if _, err := hex.DecodeString(salt); err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(key)), []byte(hash)) == 1
}

func derive(password, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), Iterations, KeyLength, sha512.New)
}
