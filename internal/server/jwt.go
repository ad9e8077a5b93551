package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT 相关配置
const (
	// Session 有效期，同时也是断线重连的最长窗口
	SessionTTL = 10 * time.Minute

	// Token 签名者
	tokenIssuer = "riftline-server"
)

var ErrInvalidToken = errors.New("invalid session token")

// Claims 定义 JWT Claims
type Claims struct {
	EntityID int32  `json:"entity_id"`
	RoomID   string `json:"room_id,omitempty"`
	jwt.RegisteredClaims
}

// getSigningKey 获取签名密钥
// 从环境变量 JWT_SECRET 读取，如果不存在则使用默认值
func getSigningKey() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// 开发环境默认密钥，生产环境应设置环境变量
		secret = "riftline-dev-secret-change-in-production"
	}
	return []byte(secret)
}

// GenerateSessionToken 生成会话 Token
func GenerateSessionToken(entityID int32, roomID string) (string, error) {
	now := time.Now()
	claims := Claims{
		EntityID: entityID,
		RoomID:   roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("entity-%d", entityID),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getSigningKey())
}

// VerifySessionToken 验证并解析 Token，返回实体 ID 和房间 ID
func VerifySessionToken(tokenString string) (int32, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return getSigningKey(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.EntityID > 0 {
		return claims.EntityID, claims.RoomID, nil
	}

	return 0, "", ErrInvalidToken
}
