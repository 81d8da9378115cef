package usecase

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/domain/model"

	"github.com/sirupsen/logrus"
)

// アクセストークン発行の約束（JWTの詳細はinfra側）
type AccessTokenIssuer interface {
	Issue(subject string, email string, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

// SessionUsecase はゲストセッションを発行する。
// ログインしていない利用者にもカートのオーナーキーを持たせる。
type SessionUsecase struct {
	issuer AccessTokenIssuer
	ids    IDGenerator
	clock  Clock
	log    logrus.FieldLogger
}

func NewSessionUsecase(issuer AccessTokenIssuer, ids IDGenerator, clock Clock, log logrus.FieldLogger) *SessionUsecase {
	return &SessionUsecase{issuer: issuer, ids: ids, clock: clock, log: log}
}

type GuestSessionOutput struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	OwnerKey    string    `json:"owner_key"`
}

// StartGuest は guest_<uuid> のオーナーキーとそのトークンを作る
func (u *SessionUsecase) StartGuest(ctx context.Context) (GuestSessionOutput, error) {
	ownerKey := model.GuestOwnerPrefix + u.ids.NewID()

	token, exp, err := u.issuer.Issue(ownerKey, "", model.RoleGuest, u.clock.Now())
	if err != nil {
		u.log.WithError(err).Error("issue guest token failed")
		return GuestSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "token error")
	}

	return GuestSessionOutput{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		OwnerKey:    ownerKey,
	}, nil
}
