package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// KeyRing signs with one current key and verifies against the current key
// plus any previous keys still inside their validation window. It is
// immutable after construction and safe for concurrent use.
type KeyRing struct {
	current Signer
	byKID   map[string]Signer
	algs    []string
}

// NewKeyRing builds a ring. previous keys are only ever used to verify.
func NewKeyRing(current Signer, previous ...Signer) (*KeyRing, error) {
	if current == nil {
		return nil, errors.New("jwtx: key ring needs a current signer")
	}

	kr := &KeyRing{current: current, byKID: make(map[string]Signer, 1+len(previous))}
	for _, s := range append([]Signer{current}, previous...) {
		if s.KID() == "" {
			return nil, ErrMissingKID
		}
		if _, dup := kr.byKID[s.KID()]; dup {
			return nil, fmt.Errorf("jwtx: duplicate kid %q", s.KID())
		}
		kr.byKID[s.KID()] = s
		kr.algs = appendUnique(kr.algs, s.Alg())
	}
	return kr, nil
}

// Current returns the signing key.
func (kr *KeyRing) Current() Signer { return kr.current }

func (kr *KeyRing) Sign(c Claims) (string, error) { return kr.current.Sign(c) }

// Verify checks the signature, structure, use, issuer, audience and the
// time window. exp is exclusive: a token is rejected at its expiry instant.
func (kr *KeyRing) Verify(tokenStr string, opts VerifyOptions) (Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(kr.algs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if opts.Now != nil {
		parserOpts = append(parserOpts, jwt.WithTimeFunc(opts.Now))
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	for _, aud := range opts.Audience {
		parserOpts = append(parserOpts, jwt.WithAudience(aud))
	}

	var claims Claims
	_, err := jwt.NewParser(parserOpts...).ParseWithClaims(tokenStr, &claims, kr.keyFunc)
	if err != nil {
		return Claims{}, classify(err)
	}

	if opts.Use == "" || claims.Use != opts.Use {
		return Claims{}, ErrInvalidUse
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing sub", ErrInvalid)
	}
	return claims, nil
}

func (kr *KeyRing) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, ErrMissingKID
	}
	s, ok := kr.byKID[kid]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
	}
	// A kid must only verify tokens of its own algorithm.
	if t.Method.Alg() != s.Alg() {
		return nil, ErrAlgMismatch
	}
	return s.VerifyKey(), nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	default:
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
}

func appendUnique(xs []string, x string) []string {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}

// Compile-time check.
var _ Verifier = (*KeyRing)(nil)
