// Package auth holds the JWT machinery and the identity context that the
// visibility rules operate on. Tokens are signed with RS256; the private key
// is only needed by the login path, validation needs the public key alone.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

// ClaimsKey is used to store the verified claims on the request context.
const ClaimsKey ctxKey = 1

// Marketplace roles. Every user carries exactly one.
const (
	RoleAdmin          = "admin"
	RoleSeller         = "seller"
	RoleBuyer          = "buyer"
	RoleContentManager = "content-manager"
	RoleInquiryManager = "inquiry-manager"
)

// ValidRole reports whether r is one of the marketplace roles.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleBuyer, RoleContentManager, RoleInquiryManager:
		return true
	}
	return false
}

type Claims struct {
	jwt.RegisteredClaims
	Role    string `json:"role"`
	Email   string `json:"email"`
	StoreID string `json:"store_id,omitempty"`
}

// Identity is the authenticated caller as the domain sees it. A nil *Identity
// means anonymous.
type Identity struct {
	ID      string
	Role    string
	Email   string
	StoreID string
}

// Identity converts verified claims into the identity context handed to the
// visibility rules.
func (c Claims) Identity() *Identity {
	return &Identity{
		ID:      c.Subject,
		Role:    c.Role,
		Email:   c.Email,
		StoreID: c.StoreID,
	}
}

type Keys struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewKeys(privateKey *rsa.PrivateKey) (*Keys, error) {
	if privateKey == nil {
		return nil, errors.New("private key is nil")
	}
	return &Keys{privateKey: privateKey, publicKey: &privateKey.PublicKey}, nil
}

// NewKeysFromPEM parses a PKCS#1 or PKCS#8 encoded RSA private key.
func NewKeysFromPEM(privatePEM []byte) (*Keys, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return NewKeys(privateKey)
}

func (k *Keys) GenerateToken(userID, role, email, storeID string, validity time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "razorkart",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
		},
		Role:    role,
		Email:   email,
		StoreID: storeID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(k.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (k *Keys) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.publicKey, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}
