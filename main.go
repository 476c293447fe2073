package main

import (
	"SourceHub/bot"
	"SourceHub/impl/core"
	"SourceHub/internal/config"
	"SourceHub/internal/database"
	"SourceHub/internal/http-server/api"
	"SourceHub/internal/lib/fileurl"
	"SourceHub/internal/lib/logger"
	"SourceHub/internal/lib/sl"
	"SourceHub/internal/service/auth"
	"SourceHub/internal/service/autoreply"
	"SourceHub/internal/service/likes"
	"SourceHub/internal/service/relay"
	"SourceHub/internal/service/storage"
	"SourceHub/internal/ws"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Telegram bot if enabled
	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.Info("telegram bot initialized")
		}
	}

	lg.Info("starting sourcehub", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	handler := core.New(lg)

	authService := auth.NewAuthService(lg, conf.Auth.JwtSecret, conf.Auth.TokenTTL)
	handler.SetAuthService(authService)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.Error("mongo client", sl.Err(err))
		return
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			lg.Warn("mongo close", sl.Err(err))
		}
	}()
	if err = db.EnsureIndexes(ctx); err != nil {
		lg.Error("mongo indexes", sl.Err(err))
	}
	handler.SetRepository(db)
	lg.With(
		slog.String("host", conf.Mongo.Host),
		slog.String("port", conf.Mongo.Port),
		slog.String("user", conf.Mongo.User),
		slog.String("database", conf.Mongo.Database),
	).Info("mongo client initialized")

	signer := fileurl.NewSigner(conf.Files.SignSecret, conf.Files.URLTTL)
	switch conf.Files.Backend {
	case "minio":
		store, err := storage.NewMinioStore(ctx, storage.Config{
			Endpoint:  conf.Minio.Endpoint,
			AccessKey: conf.Minio.AccessKey,
			SecretKey: conf.Minio.SecretKey,
			Bucket:    conf.Minio.Bucket,
			UseSSL:    conf.Minio.UseSSL,
			PublicURL: conf.Minio.PublicURL,
		})
		if err != nil {
			lg.Error("minio storage", sl.Err(err))
			return
		}
		handler.SetFileStore(store)
		lg.With(
			slog.String("endpoint", conf.Minio.Endpoint),
			slog.String("bucket", conf.Minio.Bucket),
		).Info("minio storage initialized")
	default:
		handler.SetFileStore(repository.NewGridFSStore(db, signer))
		lg.Info("gridfs storage initialized")
	}

	if conf.Redis.Enabled {
		client, err := likes.NewRedisClient(ctx, conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			lg.Error("redis client", sl.Err(err))
			return
		}
		defer func() { _ = client.Close() }()
		handler.SetLikeTracker(likes.NewRedisTracker(client, conf.Likes.DedupTTL))
		lg.Info("redis like tracker initialized", slog.String("addr", conf.Redis.Addr))
	} else {
		handler.SetLikeTracker(likes.NewMemoryTracker(conf.Likes.DedupTTL))
	}

	hub := ws.NewHub(lg)
	go hub.Run(ctx)
	handler.SetEventBus(hub)

	if conf.Nats.Enabled {
		nr, err := relay.Connect(relay.Config{
			URL:     conf.Nats.URL,
			Subject: conf.Nats.Subject,
			Token:   conf.Nats.Token,
		}, lg)
		if err != nil {
			lg.Error("nats relay", sl.Err(err))
		} else {
			defer nr.Close()
			hub.SetRelay(nr)
			if err = nr.Subscribe(hub.DeliverRemote); err != nil {
				lg.Error("nats subscribe", sl.Err(err))
			}
			lg.With(
				slog.String("url", conf.Nats.URL),
				slog.String("subject", conf.Nats.Subject),
			).Info("nats relay initialized")
		}
	}

	replies := autoreply.NewScheduler(lg, autoreply.Options{
		Enabled:       conf.AutoReply.Enabled,
		GreetingDelay: conf.AutoReply.GreetingDelay,
		FollowUpDelay: conf.AutoReply.FollowUpDelay,
		Coalesce:      conf.AutoReply.Coalesce,
		Greetings:     conf.AutoReply.Greetings,
		FollowUps:     conf.AutoReply.FollowUps,
	})
	replies.SetDeliverer(handler)
	defer replies.Stop()
	handler.SetAutoReplier(replies)

	if tgBot != nil {
		handler.SetMessageService(tgBot)
		tgBot.SetStatsSource(handler)
		go func() {
			if err := tgBot.Start(ctx); err != nil {
				lg.Error("telegram bot error", sl.Err(err))
			}
		}()
	}

	seeds := make([]core.AdminSeed, 0, len(conf.Admins))
	for _, admin := range conf.Admins {
		seeds = append(seeds, core.AdminSeed{
			Username: admin.Username,
			Name:     admin.Name,
			Role:     admin.Role,
			Password: admin.Password,
		})
	}
	if err = handler.SeedAdmins(ctx, seeds); err != nil {
		lg.Error("seed admins", sl.Err(err))
	}

	server := api.New(conf, lg, handler)
	server.SetHub(hub, authService)
	server.SetSigner(signer)

	// *** blocking start with http server ***
	if err = server.Run(ctx); err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Info("service stopped")
}
