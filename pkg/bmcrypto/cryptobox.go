package bmcrypto

import (
	"encoding/binary"
)

// curveTypeSECP256K1 is the OpenSSL EC_GROUP NID for secp256k1, written
// into every CryptoBox envelope's curve-type field on the wire.
const curveTypeSECP256K1 = 0x02CA

// SealCryptoBox encrypts plaintext to targetPub using Bitmessage's
// CryptoBox ECIES envelope (§4.2): an ephemeral secp256k1 keypair is
// generated, ECDH against targetPub derives an AES key and a MAC key
// from SHA-512, and the result is AES-256-CBC encrypted and
// HMAC-SHA-256 authenticated over the whole header.
//
// Wire layout: iv(16) || curveType(2) || xLen(2) || R.x || yLen(2) ||
// R.y || ciphertext || mac(32).
func SealCryptoBox(targetPub *PublicKey, plaintext []byte) ([]byte, error) {
	ephemeral, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	shared, err := ephemeral.ECDH(targetPub)
	if err != nil {
		return nil, err
	}
	sharedMAC := SHA512(shared)
	encKey := MacFirstHalf(sharedMAC)
	macKey := MacSecondHalf(sharedMAC)

	iv, err := RandomBytes(AESBlockSize)
	if err != nil {
		return nil, err
	}

	ciphertext, err := AES256CBCEncrypt(encKey, iv, plaintext)
	if err != nil {
		return nil, err
	}

	R := ephemeral.Public().Bytes() // 64 bytes: X(32) || Y(32)
	rx, ry := R[:32], R[32:]

	header := make([]byte, 0, len(iv)+2+2+len(rx)+2+len(ry))
	header = append(header, iv...)
	header = appendUint16(header, curveTypeSECP256K1)
	header = appendUint16(header, uint16(len(rx)))
	header = append(header, rx...)
	header = appendUint16(header, uint16(len(ry)))
	header = append(header, ry...)

	macInput := make([]byte, 0, len(header)+len(ciphertext))
	macInput = append(macInput, header...)
	macInput = append(macInput, ciphertext...)
	mac := HMACSHA256(macKey, macInput)

	out := make([]byte, 0, len(header)+len(ciphertext)+len(mac))
	out = append(out, header...)
	out = append(out, ciphertext...)
	out = append(out, mac[:]...)
	return out, nil
}

// OpenCryptoBox decrypts a CryptoBox envelope produced by SealCryptoBox,
// using priv's ECDH private scalar. It verifies the MAC in constant
// time before attempting to decrypt, and returns ErrDecryptionFailed on
// any mismatch -- the expected, silent outcome for the (overwhelming)
// majority of objects on the network that are not addressed to priv.
func OpenCryptoBox(priv *PrivateKey, envelope []byte) ([]byte, error) {
	const minLen = AESBlockSize + 2 + 2 + 32 + 2 + 32 + HMACSHA256Size
	if len(envelope) < minLen {
		return nil, ErrInvalidCiphertext
	}

	pos := 0
	iv := envelope[pos : pos+AESBlockSize]
	pos += AESBlockSize

	_ = binary.BigEndian.Uint16(envelope[pos : pos+2]) // curve type, unchecked like the reference
	pos += 2

	xLen := int(binary.BigEndian.Uint16(envelope[pos : pos+2]))
	pos += 2
	if xLen != 32 || len(envelope) < pos+xLen {
		return nil, ErrInvalidCiphertext
	}
	rx := envelope[pos : pos+xLen]
	pos += xLen

	if len(envelope) < pos+2 {
		return nil, ErrInvalidCiphertext
	}
	yLen := int(binary.BigEndian.Uint16(envelope[pos : pos+2]))
	pos += 2
	if yLen != 32 || len(envelope) < pos+yLen {
		return nil, ErrInvalidCiphertext
	}
	ry := envelope[pos : pos+yLen]
	pos += yLen

	if len(envelope) < pos+HMACSHA256Size {
		return nil, ErrInvalidCiphertext
	}
	ciphertext := envelope[pos : len(envelope)-HMACSHA256Size]
	mac := envelope[len(envelope)-HMACSHA256Size:]
	header := envelope[:pos]

	rxy := make([]byte, 0, 64)
	rxy = append(rxy, rx...)
	rxy = append(rxy, ry...)
	R, err := NewPublicKey(rxy)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	shared, err := priv.ECDH(R)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	sharedMAC := SHA512(shared)
	encKey := MacFirstHalf(sharedMAC)
	macKey := MacSecondHalf(sharedMAC)

	macInput := make([]byte, 0, len(header)+len(ciphertext))
	macInput = append(macInput, header...)
	macInput = append(macInput, ciphertext...)
	wantMAC := HMACSHA256(macKey, macInput)
	if !HMACEqual(wantMAC[:], mac) {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := AES256CBCDecrypt(encKey, iv, ciphertext)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func appendUint16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}
