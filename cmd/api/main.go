package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/token"
	appmw "storefront/internal/middleware"
	"storefront/internal/rate"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/ardanlabs/conf/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if err := Run(logger); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return
		}
		logger.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	//.envは無くてもよい
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if cfg.GoEnv != "dev" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger.WithField("db_driver", cfg.DBDriver).Info("starting server")
	defer logger.Info("shutdown complete")

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}
	defer db.Close(gormDB)

	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	cartLineRepo := infraRepo.NewCartLineGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := usecase.UUIDGenerator{}
	clock := usecase.SystemClock{}
	jwt := token.NewJWT(cfg.JWTSecret, cfg.GuestTokenTTL)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(cartLineRepo, txm, idGen, clock, logger.WithField("component", "cart"), usecase.NewCartWatcher())
	productUC := usecase.NewProductUsecase(productRepo, txm, idGen, clock)
	orderUC := usecase.NewOrderUsecase(txm, cartUC, idGen, clock, logger.WithField("component", "order"))
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, clock)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)
	sessionUC := usecase.NewSessionUsecase(jwt, idGen, clock, logger.WithField("component", "session"))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	guestLimiter := rate.NewLimiter(ctx, cfg.GuestRateBurst, cfg.GuestRateExpiry, cfg.GuestRateRPS)

	//Handler生成
	e := server.New(server.APIConfig{
		CorsOrigin:   cfg.CORSOrigin,
		Log:          logger,
		Verifier:     jwt,
		GuestLimiter: appmw.RateLimitByIP(guestLimiter),
		Session:      handler.NewSessionHandler(sessionUC),
		Products:     handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC, productUC),
		Orders:       handler.NewOrderHandler(orderUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminAudit:   handler.NewAdminAuditHandler(auditUC),
	})

	api := http.Server{
		Handler:      e,
		Addr:         cfg.Addr(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorLog:     errLog,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		//SSEの接続を先に終わらせる
		stop()

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(sctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}
