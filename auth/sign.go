package auth

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"math/big"
)

// p384FieldBytes is the fixed width of each of the two big-endian integers
// that make up a JOSE ES384 signature over a P-384 curve.
const p384FieldBytes = 48

// signES384 produces a fixed-length r||s signature over data the way the
// JOSE ES384 algorithm requires, rather than the variable-length ASN.1
// encoding ecdsa.SignASN1 would produce.
func signES384(key *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha512.Sum384(data)

	r, s, err := ecdsa.Sign(rand.Reader, key, digest[:])
	if err != nil {
		return nil, err
	}

	out := make([]byte, p384FieldBytes*2)
	r.FillBytes(out[:p384FieldBytes])
	s.FillBytes(out[p384FieldBytes:])

	return out, nil
}

// verifyES384 checks a fixed-length r||s ES384 signature against data, the
// inverse of signES384. The identity providers do not call it on the
// chains they return.
func verifyES384(key *ecdsa.PublicKey, data, sig []byte) error {
	if len(sig) != p384FieldBytes*2 {
		return errors.New("auth: malformed ES384 signature")
	}

	r := new(big.Int).SetBytes(sig[:p384FieldBytes])
	s := new(big.Int).SetBytes(sig[p384FieldBytes:])

	digest := sha512.Sum384(data)

	if !ecdsa.Verify(key, digest[:], r, s) {
		return errors.New("auth: ES384 signature verification failed")
	}

	return nil
}
