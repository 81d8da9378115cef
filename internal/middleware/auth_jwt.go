package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/infra/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxSubjectKey  = "subject"   // string
	CtxUserRoleKey = "user_role" // string
	CtxOwnerKey    = "owner_key" // string
)

// トークン検証の約束
type TokenVerifier interface {
	Parse(raw string) (token.Claims, error)
}

// bearerAuth用のJWT検証ミドルウェア。
// カートのオーナーキーは検証済みトークンからだけ決める。
func AuthJWT(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, err := v.Parse(rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//contextへ保存
			c.Set(CtxSubjectKey, claims.Subject)
			c.Set(CtxUserRoleKey, string(claims.Role))
			c.Set(CtxOwnerKey, claims.OwnerKey())

			return next(c)
		}
	}
}

// OwnerKey はAuthJWTが入れたオーナーキー（無ければ空）
func OwnerKey(c echo.Context) string {
	s, _ := c.Get(CtxOwnerKey).(string)
	return s
}

// Subject はトークンのsub（監査ログの操作者）
func Subject(c echo.Context) string {
	s, _ := c.Get(CtxSubjectKey).(string)
	return s
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
