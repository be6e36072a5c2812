package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const issuer = "projdesk"

// Claims identify the caller; tenancy rides along as company_id.
type Claims struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id,omitempty"`
	jwtlib.RegisteredClaims
}

func GenerateToken(userID, companyID string, secret []byte, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		CompanyID: companyID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
}

func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(tokenString, claims,
		func(*jwtlib.Token) (interface{}, error) { return secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user")
	}
	return claims, nil
}

// BlobClaims grant read access to a single stored object until expiry.
type BlobClaims struct {
	Key string `json:"key"`
	jwtlib.RegisteredClaims
}

func GenerateBlobToken(key string, secret []byte, expiresAt time.Time) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}
	claims := BlobClaims{
		Key: key,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
}

// ParseBlobToken validates token against now; expiry surfaces as jwtlib.ErrTokenExpired.
func ParseBlobToken(token string, secret []byte, now func() time.Time) (*BlobClaims, error) {
	claims := &BlobClaims{}
	_, err := jwtlib.ParseWithClaims(token, claims,
		func(*jwtlib.Token) (interface{}, error) { return secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithTimeFunc(now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwtlib.ErrTokenExpired)
}
