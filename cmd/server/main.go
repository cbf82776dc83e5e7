package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coreseed/internal/auth"
	"coreseed/internal/config"
	apphttp "coreseed/internal/http"
	"coreseed/internal/identity"
	"coreseed/internal/repository/sqlite"
	"coreseed/internal/seed"
	"coreseed/internal/service"
	"coreseed/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	profileRepo := sqlite.NewProfileRepository()
	userRepo := sqlite.NewUserRepository()
	grantRepo := sqlite.NewGrantRepository()
	settingRepo := sqlite.NewSettingRepository()

	if err := profileRepo.Init(ctx, db); err != nil {
		logger.Fatalf("init profile repository: %v", err)
	}
	if err := userRepo.Init(ctx, db); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := grantRepo.Init(ctx, db); err != nil {
		logger.Fatalf("init grant repository: %v", err)
	}
	if err := settingRepo.Init(ctx, db); err != nil {
		logger.Fatalf("init setting repository: %v", err)
	}

	idp := identity.NewProvider(grantRepo, identity.DefaultCatalog())
	signer := auth.NewSigner(
		[]byte(cfg.Auth.JWTSecret),
		cfg.Auth.Issuer,
		cfg.Auth.Audience,
		time.Duration(cfg.Auth.TokenTTLHours)*time.Hour,
	)

	profileService := service.NewProfileService(db, profileRepo, userRepo, idp)
	userService := service.NewUserService(db, userRepo, profileRepo, idp, signer)
	settingService := service.NewSettingService(db, settingRepo)

	seeder := seed.New(db, profileRepo, userRepo, settingRepo, idp, logger)
	if err := seeder.Run(ctx, cfg.Auth.AdminPassword); err != nil {
		logger.Fatalf("seed database: %v", err)
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		profileService,
		settingService,
		storageSvc,
		signer,
		cfg.Storage.Bucket,
		cfg.Storage.KeyPrefix,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildStorage sets up the avatar object store. A missing bucket disables it;
// the avatar endpoints then report storage as unavailable.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured, avatar storage disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
