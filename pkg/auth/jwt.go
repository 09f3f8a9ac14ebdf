// Package auth 校验由外部认证服务签发的 bearer token，核心服务只校验、不签发
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken token 无效、过期或签名不匹配
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Verifier 将 token 解析为用户名
type Verifier interface {
	Verify(token string) (string, error)
}

// Claims 认证服务签发的 token 载荷
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTVerifier 使用共享密钥校验 HS256 token
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTVerifier 创建 JWT 校验器
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify 校验 token 并返回其中的用户名
func (v *JWTVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Username == "" {
		return "", fmt.Errorf("%w: missing username", ErrInvalidToken)
	}
	return claims.Username, nil
}
