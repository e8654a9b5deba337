package bmcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
)

// AES256KeySize and AESBlockSize are the sizes mandated for the
// CryptoBox envelope's symmetric encryption (§4.2).
const (
	AES256KeySize = 32
	AESBlockSize  = aes.BlockSize // 16
)

// AES256CBCEncrypt encrypts data under key and iv using AES-256 in CBC
// mode with PKCS#7 padding. The standard library exposes the block
// cipher and the CBC mode but, unlike higher-level AEAD constructions,
// leaves padding to the caller.
func AES256CBCEncrypt(key, iv, data []byte) ([]byte, error) {
	if len(key) != AES256KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != AESBlockSize {
		return nil, ErrInvalidKey
	}

	padded := pkcs7Pad(data, AESBlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// AES256CBCDecrypt reverses AES256CBCEncrypt and strips the PKCS#7
// padding. It returns ErrDecryptionFailed if the ciphertext is not a
// whole number of blocks or the padding is malformed.
func AES256CBCDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	if len(key) != AES256KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != AESBlockSize || len(ciphertext) == 0 || len(ciphertext)%AESBlockSize != 0 {
		return nil, ErrDecryptionFailed
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out)
}

// RandomBytes returns n cryptographically random bytes. Used for IVs,
// ephemeral nonces, and ackData.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrDecryptionFailed
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) || padLen > AESBlockSize {
		return nil, ErrDecryptionFailed
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrDecryptionFailed
		}
	}
	return data[:len(data)-padLen], nil
}
