package jwtx

// Signer signs claims with a single key and exposes the matching
// verification key.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)

	// VerifyKey is what jwt.Keyfunc must return for tokens from this signer.
	VerifyKey() any
}

// NewSignerHS256 creates an HMAC-SHA256 signer. The secret must be at
// least 32 bytes.
func NewSignerHS256(kid string, secret []byte) (Signer, error) {
	return newHS256Signer(kid, secret)
}

// NewSignerEdDSA creates an EdDSA signer from a PKCS8 PEM Ed25519 key.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	return newEdDSASigner(kid, pemKey)
}
