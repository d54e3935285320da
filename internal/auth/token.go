package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pliu/roomchat/internal/objectid"
)

const issuer = "roomchat"

// ErrInvalidToken is returned for malformed, expired or forged session tokens.
var ErrInvalidToken = errors.New("auth: invalid session token")

// Claims is the payload of a session token. The subject is the user's
// hex object id.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID objectid.ID) (string, error) {
	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks the signature and expiry of tokenString and returns the
// user it was issued for.
func (i *Issuer) Verify(tokenString string) (objectid.ID, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return objectid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID, err := objectid.Convert(claims.Subject)
	if err != nil {
		return objectid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return userID, nil
}
