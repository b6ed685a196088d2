package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"Kampung_Community/internal/config"
	"Kampung_Community/internal/middleware"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"
	"Kampung_Community/internal/repository/redis"
	"Kampung_Community/internal/router"
	"Kampung_Community/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := pkg.NewLogger(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	pkg.SetSecrets(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)

	if err := mysql.InitDB(cfg.MySQLDSN); err != nil {
		log.Fatal("connect mysql failed", zap.Error(err))
	}
	// 自动建表并写入邮区数据
	if err := mysql.AutoMigrate(mysql.DB); err != nil {
		log.Fatal("auto migrate failed", zap.Error(err))
	}

	// 连接redis
	if err := redis.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Fatal("connect redis failed", zap.Error(err))
	}
	defer redis.Close()

	// kafka 未配置时 outbox 事件只写日志
	sender := service.LogSender(log)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: brokers, Topic: cfg.KafkaTopic})
		if err != nil {
			log.Fatal("create kafka producer failed", zap.Error(err))
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)
		log.Info("kafka relay enabled", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	}

	mailer := pkg.NewSMTPMailer(pkg.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	geocoder := pkg.NewOneMapClient(cfg.OneMapBaseURL, cfg.OneMapTimeout)

	db, rdb := mysql.DB, redis.Client
	community := service.NewCommunityService(db)
	groupBuys := service.NewGroupBuyService(db, community, cfg.PublicURL, log)
	deps := router.Deps{
		DB:        db,
		Redis:     rdb,
		Log:       log,
		Postal:    service.NewPostalService(db, rdb, geocoder, log),
		Users:     service.NewUserService(db, rdb, service.NewEmailService(mailer, rdb, cfg.PublicURL)),
		Profiles:  service.NewProfileService(db),
		Community: community,
		Posts:     service.NewPostService(db, community),
		Comments:  service.NewCommentService(db, community),
		Votes:     service.NewVoteService(db, rdb, log),
		GroupBuys: groupBuys,
		Metrics:   middleware.NewMetrics(),
		Limiter:   middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// outbox 投递
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		service.NewOutboxRelayer(db, sender, log).Run(ctx)
	}()

	scheduler, err := service.NewScheduler(groupBuys, service.NewScoreReconciler(db, rdb, log), log)
	if err != nil {
		log.Fatal("create scheduler failed", zap.Error(err))
	}
	if err := scheduler.Add("@every 5m", func() {
		if n := deps.Limiter.Cleanup(); n > 0 {
			log.Debug("rate limiter cleanup", zap.Int("removed", n))
		}
	}); err != nil {
		log.Fatal("add cleanup job failed", zap.Error(err))
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.InitRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)
	select {
	case <-relayDone:
	case <-shutdownCtx.Done():
	}
}
