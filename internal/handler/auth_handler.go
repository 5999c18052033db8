package handler

import (
	"errors"
	"net/http"
	"time"

	auth "ecshop/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const refreshCookieName = "refreshToken"

// refresh cookieの属性
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	signupUC  *auth.SignupUsecase  // 会員登録usecase
	loginUC   *auth.LoginUsecase   // ログインusecase
	refreshUC *auth.RefreshUsecase // ローテーション
	logoutUC  *auth.LogoutUsecase
	profileUC *auth.ProfileUsecase
	cookie    CookieConfig
	log       *zap.Logger
}

// DIコンストラクタ
func NewAuthHandler(
	signupUC *auth.SignupUsecase,
	loginUC *auth.LoginUsecase,
	refreshUC *auth.RefreshUsecase,
	logoutUC *auth.LogoutUsecase,
	profileUC *auth.ProfileUsecase,
	cookie CookieConfig,
	log *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		signupUC:  signupUC,
		loginUC:   loginUC,
		refreshUC: refreshUC,
		logoutUC:  logoutUC,
		profileUC: profileUC,
		cookie:    cookie,
		log:       log,
	}
}

// /auth/* を登録（authMWはBearer必須、limitはIPごとの回数制限）
func (h *AuthHandler) RegisterRoutes(e *echo.Echo, authMW echo.MiddlewareFunc, limit echo.MiddlewareFunc) {
	g := e.Group("/auth")

	g.POST("/signup", h.signup, limit)
	g.POST("/login", h.login, limit)
	g.POST("/refresh", h.refresh, limit)

	g.POST("/logout", h.logout, authMW)
	g.GET("/user", h.me, authMW)
	g.POST("/updateContact", h.updateContact, authMW)
}

// /auth/signup のリクエストボディ。
type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message     string           `json:"message"`
	AccessToken string           `json:"accessToken"`
	User        auth.UserProfile `json:"user"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type contactRequest struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Pincode string `json:"pincode"`
	City    string `json:"city"`
	State   string `json:"state"`
}

func (h *AuthHandler) signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
	}

	_, err := h.signupUC.Execute(c.Request().Context(), auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var ve *auth.ValidationError
		switch {
		case errors.As(err, &ve):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: ve.Message})
		case errors.Is(err, auth.ErrConflict):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Email already in use"})
		default:
			return internalError(c, h.log, err)
		}
	}

	return c.JSON(http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

// メール不在とパスワード違いは同じ401
func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials"})
		}
		return internalError(c, h.log, err)
	}

	// 保存が済んでからcookieを付ける
	h.setRefreshCookie(c, out.RefreshToken)

	return c.JSON(http.StatusOK, loginResponse{
		Message:     "Logged in successfully",
		AccessToken: out.AccessToken,
		User:        out.User,
	})
}

func (h *AuthHandler) refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusForbidden, ErrorResponse{Message: "Refresh token required"})
	}

	out, err := h.refreshUC.Execute(c.Request().Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			h.log.Info("refresh rejected", zap.String("reason", err.Error()), zap.String("ip", c.RealIP()))
			return c.JSON(http.StatusForbidden, ErrorResponse{Message: "Invalid refresh token"})
		}
		return internalError(c, h.log, err)
	}

	h.setRefreshCookie(c, out.RefreshToken)
	return c.JSON(http.StatusOK, refreshResponse{AccessToken: out.AccessToken})
}

func (h *AuthHandler) logout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
	}

	if err := h.logoutUC.Execute(c.Request().Context(), userID); err != nil {
		h.log.Error("logout failed", zap.String("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Error logging out"})
	}

	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
	}

	profile, err := h.profileUC.Me(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
		}
		h.log.Error("fetch user failed", zap.String("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Error fetching user"})
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *AuthHandler) updateContact(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
	}

	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
	}

	err := h.profileUC.UpdateContact(c.Request().Context(), userID, auth.ContactInput{
		Address: req.Address,
		Phone:   req.Phone,
		Pincode: req.Pincode,
		City:    req.City,
		State:   req.State,
	})
	if err != nil {
		var ve *auth.ValidationError
		switch {
		case errors.As(err, &ve):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: ve.Message})
		case errors.Is(err, auth.ErrNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})
		default:
			h.log.Error("update contact failed", zap.String("user_id", userID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Error updating contact"})
		}
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Contact updated successfully"})
}

// refreshトークンをCookieにセット
func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plainRefresh,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.cookie.MaxAge / time.Second),
		Expires:  time.Now().Add(h.cookie.MaxAge),
	})
}

// 同じ属性で期限切れにして消す
func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
