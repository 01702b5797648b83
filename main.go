package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"urbanfix-be/config"
	"urbanfix-be/controllers"
	"urbanfix-be/middlewares"
	"urbanfix-be/notify"
	"urbanfix-be/repositories"
	"urbanfix-be/routes"
	"urbanfix-be/services"
	"urbanfix-be/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	l := config.NewLogger(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	client, db, err := config.ConnectDB(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("db connect failed")
	}
	defer func() {
		if err := config.DisconnectDB(client); err != nil {
			l.Error().Err(err).Msg("db disconnect failed")
		}
	}()
	l.Info().Str("db", cfg.MongoDB).Msg("MongoDB connection established")

	if err := repositories.EnsureIndexes(db); err != nil {
		l.Fatal().Err(err).Msg("index creation failed")
	}

	rdb, err := config.ConnectRedis(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("redis connect failed")
	}

	var (
		pub     notify.Publisher = notify.Nop{}
		counter middlewares.WindowCounter
	)
	if rdb != nil {
		defer rdb.Close()
		pub = notify.NewRedisPublisher(rdb, cfg.NotifyChannel)
		counter = middlewares.NewRedisWindowCounter(rdb)
	} else {
		l.Warn().Msg("REDIS_ADDRESS not set: rate limiting and notifications disabled")
	}

	var tx repositories.TxRunner = repositories.NoTx{}
	if cfg.MongoTransactions {
		tx = repositories.NewMongoTx(client)
	}

	var blobs storage.BlobStore
	if cfg.S3Enabled() {
		s3, err := storage.NewS3Store(context.Background(), storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			l.Fatal().Err(err).Msg("s3 setup failed")
		}
		blobs = s3
	}

	var policy services.TransitionPolicy = services.OpenTransitions{}
	if cfg.StrictTransitions {
		policy = services.DefaultStrictTransitions
	}

	issueRepo := repositories.NewIssueRepo(db)
	commentRepo := repositories.NewCommentRepo(db)
	orderRepo := repositories.NewWorkOrderRepo(db)
	auditRepo := repositories.NewAuditRepo(db)
	userRepo := repositories.NewUserRepo(db)

	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, nil)
	issueSvc := services.NewIssueService(issueRepo, commentRepo, userRepo, auditRepo, tx, pub, services.IssueOptions{
		Policy:    policy,
		SplitNote: cfg.SplitNoteHistory,
	}, l)
	commentSvc := services.NewCommentService(commentRepo, issueRepo, userRepo, auditRepo, tx, pub, nil, l)
	orderSvc := services.NewWorkOrderService(orderRepo, issueRepo, auditRepo, tx, pub, nil, l)
	adminSvc := services.NewAdminService(userRepo, auditRepo, nil)
	photoSvc := services.NewPhotoService(issueRepo, auditRepo, blobs, tx, nil)

	if err := controllers.RegisterValidators(); err != nil {
		l.Fatal().Err(err).Msg("validator setup failed")
	}
	respond := controllers.NewResponder(cfg.Production(), l)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := routes.NewRouter(routes.Deps{
		Auth:     controllers.NewAuthController(authSvc, cfg.JWTTTL, cfg.Production(), respond),
		Issues:   controllers.NewIssueController(issueSvc, commentSvc, photoSvc, respond),
		Orders:   controllers.NewWorkOrderController(orderSvc, respond),
		Users:    controllers.NewUserController(adminSvc, respond),
		Verifier: authSvc,
		Counter:  counter,
		Metrics:  middlewares.NewMetrics(reg),
		Gatherer: reg,
		Log:      l,
		Limits: routes.Limits{
			API:             cfg.APIRateLimit,
			APIWindow:       cfg.APIRateWindow,
			IssuePrefix:     cfg.IssueLimitPrefix,
			IssueDailyLimit: cfg.IssueDailyLimit,
		},
		Origins:   strings.Split(cfg.FrontendURL, ","),
		DebugMode: !cfg.Production(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("shutdown failed")
	}
	l.Info().Msg("shutdown complete")
}
