package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type JWTClaims struct {
	CustomerID primitive.ObjectID `json:"customer_id"`
	Phone      string             `json:"phone"`
	IsAdmin    bool               `json:"is_admin"`
	TokenType  string             `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// TokenIssuer signs and verifies customer tokens with an HMAC secret.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = JWTAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = JWTRefreshTokenTTL
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (t *TokenIssuer) GenerateTokenPair(customerID primitive.ObjectID, phone string, isAdmin bool) (*TokenPair, error) {
	accessToken, err := t.sign(customerID, phone, isAdmin, TokenTypeAccess, t.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := t.sign(customerID, phone, isAdmin, TokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(t.accessTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func (t *TokenIssuer) sign(customerID primitive.ObjectID, phone string, isAdmin bool, tokenType string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := &JWTClaims{
		CustomerID: customerID,
		Phone:      phone,
		IsAdmin:    isAdmin,
		TokenType:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    AppName,
			Subject:   customerID.Hex(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// ValidateToken parses tokenString and checks it is of tokenType.
func (t *TokenIssuer) ValidateToken(tokenString, tokenType string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New(ErrInvalidToken)
	}
	if claims.TokenType != tokenType {
		return nil, errors.New("wrong token type")
	}
	return claims, nil
}
