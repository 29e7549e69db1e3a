package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/myblog-backend/api"
	"github.com/rpupo63/myblog-backend/config"
	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/database/memory"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/rpupo63/myblog-backend/services"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	log.Info().Msg("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	c := config.New()
	ctx := context.Background()
	if err := config.LoadSSM(ctx, c); err != nil {
		log.Warn().Err(err).Msg("SSM parameters not loaded, using environment only")
	}

	store, closeStore := openStore(c)
	defer closeStore()

	if username := config.GetString(c, "ISSUE_TOKEN_FOR", ""); username != "" {
		issueToken(ctx, c, store, username)
		return
	}

	svc, cleanup := buildServices(ctx, c, store)
	defer cleanup()

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(svc, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// openStore picks the storage backend from DB_TYPE. GENERATE_MODELS exits after generation.
func openStore(c map[string]string) (database.Store, func()) {
	dbType := strings.ToLower(config.GetString(c, "DB_TYPE", "postgres"))
	log.Info().Str("DB_TYPE", dbType).Msg("Selecting database")

	switch dbType {
	case "memory":
		log.Warn().Msg("Using the in-memory store; data is lost on restart")
		return memory.New(), func() {}
	case "postgres":
	default:
		log.Fatal().Str("DB_TYPE", dbType).Msg("Unsupported DB_TYPE, expected postgres or memory")
	}

	db, err := database.Open(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	// If generating models, run generation and exit
	if config.GetBool(c, "GENERATE_MODELS", false) {
		log.Info().Msg("Generating models and query helpers...")
		if err := models.GenerateModels(db); err != nil {
			log.Fatal().Err(err).Msg("Model generation failed")
		}
		os.Exit(0)
	}

	if err := models.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Error migrating database")
	}

	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return database.New(db), closeDB
}

func buildServices(ctx context.Context, c map[string]string, store database.Store) (api.Services, func()) {
	logger := log.Logger
	cleanup := func() {}

	tokens, err := services.TokensFromConfig(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error configuring tokens")
	}

	var cache services.RenderCache
	if redisCache := services.NewRedisRenderCache(c); redisCache != nil {
		cache = redisCache
		cleanup = func() { redisCache.Close() }
		log.Info().Msg("Rendered markdown is cached in redis")
	}

	storage, err := services.NewObjectStorage(ctx, services.ObjectStorageConfigFrom(c), logger)
	if err != nil {
		log.Error().Err(err).Msg("Object storage unavailable, uploads stay local")
		storage = nil
	}

	countSync := services.NewCountSync(logger)
	media := services.NewMediaService(
		config.GetString(c, "MEDIA_ROOT", "./media"),
		config.GetString(c, "MEDIA_URL", "/media"),
		storage,
		store.StoragePreference(),
		logger,
	)

	svc := api.Services{
		Posts:    services.NewPostService(store, countSync, logger),
		Comments: services.NewCommentService(store, config.GetBool(c, "ALLOW_ANONYMOUS_COMMENTS", false), logger),
		Taxonomy: services.NewTaxonomyService(store, countSync, logger),
		Users:    services.NewUserService(store, tokens, media, logger),
		Media:    media,
		Renderer: services.NewRenderer(cache, logger),
	}
	return svc, cleanup
}

// issueToken prints a bearer token for an existing user and exits.
func issueToken(ctx context.Context, c map[string]string, store database.Store, username string) {
	tokens, err := services.TokensFromConfig(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error configuring tokens")
	}

	users := services.NewUserService(store, tokens, nil, log.Logger)
	token, err := users.TokenFor(ctx, username)
	if err != nil {
		log.Fatal().Err(err).Str("username", username).Msg("Could not issue token")
	}
	fmt.Println(token)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
