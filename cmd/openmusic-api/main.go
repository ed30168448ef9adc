package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nomenklatur/openmusic/internal/auth"
	"github.com/nomenklatur/openmusic/internal/cache"
	"github.com/nomenklatur/openmusic/internal/catalog"
	"github.com/nomenklatur/openmusic/internal/config"
	"github.com/nomenklatur/openmusic/internal/database"
	"github.com/nomenklatur/openmusic/internal/exports"
	"github.com/nomenklatur/openmusic/internal/identifier"
	"github.com/nomenklatur/openmusic/internal/logging"
	"github.com/nomenklatur/openmusic/internal/playlists"
	"github.com/nomenklatur/openmusic/internal/queue"
	"github.com/nomenklatur/openmusic/internal/server"
	"github.com/nomenklatur/openmusic/internal/storage"
	"github.com/nomenklatur/openmusic/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "openmusic-api",
		Short: "OpenMusic catalog and playlist backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("redis-address", defaults.GetString("redis.address"), "Redis address for the likes cache")
	cmd.PersistentFlags().String("amqp-url", defaults.GetString("amqp.url"), "AMQP broker URL for export jobs")
	cmd.PersistentFlags().String("upload-dir", defaults.GetString("upload.dir"), "Directory for uploaded album covers")
	cmd.PersistentFlags().String("upload-base-url", defaults.GetString("upload.base_url"), "Public base URL for uploaded covers")
	cmd.PersistentFlags().Int("access-token-ttl-minutes", defaults.GetInt("auth.access_token_ttl_minutes"), "Access token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "redis.address", "redis-address")
	bindFlag(cmd, "amqp.url", "amqp-url")
	bindFlag(cmd, "upload.dir", "upload-dir")
	bindFlag(cmd, "upload.base_url", "upload-base-url")
	bindFlag(cmd, "auth.access_token_ttl_minutes", "access-token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	likesCache := cache.NewRedisCache(appConfig.RedisAddress)
	defer likesCache.Close() //nolint:errcheck
	if err := likesCache.Ping(ctx); err != nil {
		logger.Warn("redis unreachable at startup, like counts will fall back to the store", zap.Error(err))
	}

	publisher, err := queue.NewRabbitPublisher(appConfig.AMQPURL)
	if err != nil {
		return err
	}
	defer publisher.Close() //nolint:errcheck

	fileStorage, err := storage.NewFileStorage(appConfig.UploadDir)
	if err != nil {
		return err
	}

	idProvider := identifier.NewUUIDProvider()

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Database:   db,
		Cache:      likesCache,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	playlistsService, err := playlists.NewService(playlists.ServiceConfig{
		Database:   db,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	usersService, err := users.NewService(users.ServiceConfig{
		Database:   db,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	exportsService, err := exports.NewService(exports.ServiceConfig{
		Playlists: playlistsService,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	sessionStore, err := auth.NewSessionStore(db)
	if err != nil {
		return err
	}

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		AccessSecret:   []byte(appConfig.AccessTokenSecret),
		RefreshSecret:  []byte(appConfig.RefreshTokenSecret),
		AccessTokenTTL: appConfig.AccessTokenTTL,
	})

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Catalog:       catalogService,
		Playlists:     playlistsService,
		Users:         usersService,
		Exports:       exportsService,
		Sessions:      sessionStore,
		Tokens:        tokenIssuer,
		Storage:       fileStorage,
		UploadBaseURL: appConfig.UploadBaseURL,
		RateLimit: server.RateLimitConfig{
			PerSecond: appConfig.RateLimitPerSecond,
			Burst:     appConfig.RateLimitBurst,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
