package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const CtxUserIDKey = "user_id" // string

// accessトークンの検証だけを約束（DIで TokenService を渡す）
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

type errorResponse struct {
	Message string `json:"message"`
}

// bearerAuth用のJWT検証ミドルウェア。
// DBは見ない（accessトークンは署名と期限だけで判断する）
func AuthJWT(verifier AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get(echo.HeaderAuthorization)
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{Message: "Unauthorized"})
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorResponse{Message: "Unauthorized"})
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{Message: "Unauthorized"})
			}

			userID, err := verifier.VerifyAccess(rawToken)
			if err != nil || userID == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{Message: "Unauthorized"})
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			return next(c)
		}
	}
}

// AuthJWTが入れたuser_idを取り出す
func UserID(c echo.Context) (string, bool) {
	id, ok := c.Get(CtxUserIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
