package flexlink

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// AESEncrypter is the default Encrypter: AES-CTR with a key derived from
// the flexLINK password, hex-encoded with the IV prefixed.
type AESEncrypter struct {
	key [32]byte
}

// NewAESEncrypter derives the cipher key from the merchant's flexLINK
// password.
func NewAESEncrypter(password string) *AESEncrypter {
	return &AESEncrypter{key: sha256.Sum256([]byte(password))}
}

// Encrypt returns hex(iv || ciphertext) for the parameter string.
func (e *AESEncrypter) Encrypt(params string) (string, error) {
	block, err := aes.NewCipher(e.key[:])
	if err != nil {
		return "", errors.Wrap(err, "creating cipher")
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", errors.Wrap(err, "generating iv")
	}

	out := make([]byte, len(params))
	cipher.NewCTR(block, iv).XORKeyStream(out, []byte(params))

	return hex.EncodeToString(append(iv, out...)), nil
}
