package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"ecshop/internal/config"
	"ecshop/internal/handler"
	appmw "ecshop/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// ルーティングに渡すハンドラ
type Handlers struct {
	Auth    *handler.AuthHandler
	List    *handler.ListHandler
	Product *handler.ProductHandler
	Health  *handler.HealthHandler
}

// ルート単位で付けるミドルウェア
type Middlewares struct {
	Auth      echo.MiddlewareFunc // Bearer必須
	RateLimit echo.MiddlewareFunc // /auth/signup,login,refresh
}

// Newはechoを組み立てる
func New(cfg config.Config, log *zap.Logger, h Handlers, mw Middlewares) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(cfg.TrustedProxies)

	e.Use(echomw.RequestID())
	e.Use(appmw.RequestLogger(log))
	e.Use(echomw.Recover())
	//refresh cookieを送るのでoriginはFE_URLだけ
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("10M"))

	RegisterRoutes(e, h, mw)
	return e
}

// c.RealIP()の出どころ。信用するプロキシがなければヘッダは見ない
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// ctxがキャンセルされたらgracefulに止める
func Start(ctx context.Context, e *echo.Echo, addr string, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
