package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

// トークンから取り出した利用者情報
type Claims struct {
	Subject string
	Email   string
	Role    model.Role
}

// OwnerKey はカートのオーナーキー。
// メールがあればメール、無ければsub（guest_xxx）を使う。
func (c Claims) OwnerKey() string {
	if strings.TrimSpace(c.Email) != "" {
		return model.NormalizeOwnerKey(c.Email)
	}
	return model.NormalizeOwnerKey(c.Subject)
}

// JWT はHS256でアクセストークンを発行・検証する
type JWT struct {
	secret []byte
	ttl    time.Duration
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), ttl: ttl}
}

func (j *JWT) Issue(subject string, email string, role model.Role, now time.Time) (string, time.Time, error) {
	exp := now.Add(j.ttl)

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	if email != "" {
		claims["email"] = email
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse は署名と有効期限を確認してclaimsを返す
func (j *JWT) Parse(raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil || tok == nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	sub, _ := mc["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return Claims{}, ErrInvalidToken
	}
	role, _ := mc["role"].(string)
	if !model.Role(role).Valid() {
		return Claims{}, ErrInvalidToken
	}
	email, _ := mc["email"].(string)

	//ゲストはguest_xxxのsubだけを持つ
	if model.Role(role) == model.RoleGuest && !model.IsGuestOwnerKey(sub) {
		return Claims{}, ErrInvalidToken
	}

	return Claims{Subject: sub, Email: email, Role: model.Role(role)}, nil
}
