package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// KeyHasher derives the ledger identifier of a voting key. The hash is keyed
// and deterministic: the same key always maps to the same ledger entry, and
// the entry cannot be turned back into the key without the secret.
type KeyHasher struct {
	secret []byte
}

func NewKeyHasher(secret []byte) KeyHasher {
	return KeyHasher{secret: secret}
}

func (h KeyHasher) Hash(key string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}
