package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecshop/internal/config"
	"ecshop/internal/handler"
	"ecshop/internal/infra/db"
	"ecshop/internal/infra/queue"
	infraRepo "ecshop/internal/infra/repository"
	"ecshop/internal/infra/storage"
	"ecshop/internal/logger"
	"ecshop/internal/middleware"
	"ecshop/internal/repository"
	"ecshop/internal/server"
	"ecshop/internal/usecase"
	auth "ecshop/internal/usecase/auth_usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	//.envは無くてもよい
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//Repository生成（STORE_DRIVERで切り替え）
	userRepo, productRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info("store connected", zap.String("driver", cfg.StoreDriver))

	//redis（落ちていてもプロセス内のレート制限で続ける）
	rdb, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, using in-process rate limiter", zap.Error(err))
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	//画像ストレージ
	var uploader storage.Uploader
	s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	switch {
	case err == nil:
		uploader = s3Store
	case errors.Is(err, storage.ErrNotConfigured):
		log.Warn("S3_BUCKET is not set, product image upload is disabled")
		uploader = storage.DisabledStore{}
	default:
		return err
	}
	images := storage.NewBreakerStore(uploader, storage.BreakerConfig{}, log)

	//イベント
	var events auth.EventPublisher = auth.NopPublisher{}
	if cfg.AMQPURL != "" {
		pub := queue.NewAuthEventPublisher(cfg.AMQPURL, log)
		defer pub.Close()
		events = pub
	}

	clock := &realClock{}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, clock)
	if err != nil {
		return err
	}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()

	//Usecase生成
	signupUC := auth.NewSignupUsecase(userRepo, hasher, events, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, tokens, events, clock)
	refreshUC := auth.NewRefreshUsecase(userRepo, tokens, events, clock)
	logoutUC := auth.NewLogoutUsecase(userRepo, events, clock)
	profileUC := auth.NewProfileUsecase(userRepo)
	listUC := usecase.NewListUsecase(userRepo, productRepo)
	productUC := usecase.NewProductUsecase(productRepo, images)

	//Handler生成
	handlers := server.Handlers{
		Auth: handler.NewAuthHandler(signupUC, loginUC, refreshUC, logoutUC, profileUC, handler.CookieConfig{
			Secure: cfg.CookieSecure,
			MaxAge: cfg.RefreshTTL,
		}, log),
		List:    handler.NewListHandler(listUC, log),
		Product: handler.NewProductHandler(productUC, log),
		Health:  handler.NewHealthHandler(userRepo, log),
	}
	mws := server.Middlewares{
		Auth:      middleware.AuthJWT(tokens),
		RateLimit: middleware.NewRateLimiter(cfg.RateLimit, rdb, log).Middleware(),
	}

	//Server起動
	e := server.New(cfg, log, handlers, mws)
	return server.Start(ctx, e, ":"+cfg.Port, log)
}

func openStore(ctx context.Context, cfg config.Config) (repository.UserRepository, repository.ProductRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		gormDB, err := db.ConnectPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return infraRepo.NewUserGormRepository(gormDB), infraRepo.NewProductGormRepository(gormDB), closeFn, nil

	default:
		mdb, client, err := db.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		userRepo, err := infraRepo.NewUserMongoRepository(ctx, mdb)
		if err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		return userRepo, infraRepo.NewProductMongoRepository(mdb), closeFn, nil
	}
}
