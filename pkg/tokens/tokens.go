package tokens

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// StaffClaims is the payload the staff identity provider signs into
// access tokens. Subject carries the staff user name.
type StaffClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func StaffClaimsFromToken(tokenStr string, secret []byte) (*StaffClaims, error) {
	var claims StaffClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, err
	}
	return &claims, nil
}
