package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

var (
	// 署名・期限・audienceのどれかがダメ
	ErrTokenInvalid = errors.New("token invalid")
	// 署名は正しいが保存中のものと一致しない（ローテーション済み・ログアウト済み）
	ErrTokenRevoked = errors.New("token revoked")
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// TokenConfigはトークン発行の設定
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// 発行したトークンの組
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenServiceはHS256でaccess/refreshを発行・検証する
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      Clock
}

// DI
func NewTokenService(cfg TokenConfig, clock Clock) (*TokenService, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("token secret must be at least 16 characters")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		clock:      clock,
	}, nil
}

// access/refreshを新しく発行
func (s *TokenService) Issue(userID string) (TokenPair, error) {
	var pair TokenPair
	if userID == "" {
		return pair, errors.New("user id is required")
	}

	now := s.clock.Now()

	access, accessExp, err := s.sign(userID, audienceAccess, now, s.accessTTL)
	if err != nil {
		return pair, err
	}
	refresh, refreshExp, err := s.sign(userID, audienceRefresh, now, s.refreshTTL)
	if err != nil {
		return pair, err
	}

	pair = TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}
	return pair, nil
}

// refresh時の再発行（jtiが毎回変わるので同じ秒でも前のものとは一致しない）
func (s *TokenService) Rotate(userID string) (TokenPair, error) {
	return s.Issue(userID)
}

// accessトークンを検証してuserIDを返す
func (s *TokenService) VerifyAccess(token string) (string, error) {
	return s.parse(token, audienceAccess)
}

// refreshトークンの署名と期限だけ見てuserIDを返す（保存値との照合はVerifyRefresh）
func (s *TokenService) RefreshSubject(token string) (string, error) {
	return s.parse(token, audienceRefresh)
}

// refreshトークンを検証し、保存中のダイジェストと一致するか確認
func (s *TokenService) VerifyRefresh(token string, stored string) (string, error) {
	userID, err := s.parse(token, audienceRefresh)
	if err != nil {
		return "", err
	}
	if stored == "" {
		return "", ErrTokenRevoked
	}
	if subtle.ConstantTimeCompare([]byte(Digest(token)), []byte(stored)) != 1 {
		return "", ErrTokenRevoked
	}
	return userID, nil
}

// 保存用のダイジェスト
func (s *TokenService) Digest(token string) string {
	return Digest(token)
}

// DBには平文ではなくsha256を保存する
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *TokenService) sign(userID, audience string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", audience, err)
	}
	return signed, exp, nil
}

func (s *TokenService) parse(token string, audience string) (string, error) {
	if token == "" {
		return "", ErrTokenInvalid
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
