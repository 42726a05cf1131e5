package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Joseda-hg/lazyboard/internal/board"
	"github.com/Joseda-hg/lazyboard/internal/config"
	"github.com/Joseda-hg/lazyboard/internal/db"
	"github.com/Joseda-hg/lazyboard/internal/storage"
	"github.com/Joseda-hg/lazyboard/internal/tui"
	"github.com/Joseda-hg/lazyboard/internal/web"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path")
	dbPathFlag := flag.String("db", "", "sqlite db path")
	webFlag := flag.Bool("web", false, "enable web server")
	webOnlyFlag := flag.Bool("web-only", false, "run web server only")
	portFlag := flag.Int("port", 0, "web server port")
	backendFlag := flag.String("backend", "", "storage backend: sqlite, redis or memory")
	redisFlag := flag.String("redis", "", "redis URL or connection string")
	keyFlag := flag.String("key", "", "storage key for the board")
	flag.Parse()

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	// stored leaves out environment overrides, which are not written back.
	stored, err := config.LoadFile(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	overrides := flagOverrides{
		dbPath:  *dbPathFlag,
		web:     *webFlag || *webOnlyFlag,
		port:    *portFlag,
		backend: *backendFlag,
		redis:   *redisFlag,
		key:     *keyFlag,
	}
	defaultDBPath := filepath.Join(filepath.Dir(cfgPath), "lazyboard.db")
	overrides.apply(&cfg, defaultDBPath)
	overrides.apply(&stored, defaultDBPath)

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := config.Save(cfgPath, stored); err != nil {
		log.Fatal(err)
	}

	logFile, err := setupLogging(cfg, !*webOnlyFlag)
	if err != nil {
		log.Fatal(err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeBackend()

	snapshots := storage.NewSnapshots(backend, log.WithField("component", "storage"))
	loadCtx, cancel := context.WithTimeout(context.Background(), cfg.Storage.Timeout)
	store := board.Open(loadCtx, snapshots, cfg.Storage.Key,
		board.WithSaveTimeout(cfg.Storage.Timeout),
		board.WithLogger(log.WithField("component", "board")),
	)
	cancel()

	if kv, ok := backend.(*db.KV); ok {
		logLastSaved(kv, cfg)
	}

	if cfg.WebEnabled {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		handler := web.NewServer(store, log.WithField("component", "web")).Handler()
		if *webOnlyFlag {
			log.Infof("Web server running at http://localhost%s", addr)
			log.Fatal(http.ListenAndServe(addr, handler))
		}

		go func() {
			log.Infof("Web server running at http://localhost%s", addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				log.WithError(err).Error("web server stopped")
			}
		}()
	}

	if err := tui.Run(store, log.WithField("component", "tui")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type flagOverrides struct {
	dbPath  string
	web     bool
	port    int
	backend string
	redis   string
	key     string
}

func (f flagOverrides) apply(cfg *config.Config, defaultDBPath string) {
	if f.dbPath != "" {
		cfg.DBPath = f.dbPath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if f.web {
		cfg.WebEnabled = true
	}
	if f.port != 0 {
		cfg.WebPort = f.port
	}
	if f.backend != "" {
		cfg.Storage.Backend = f.backend
	}
	if f.redis != "" {
		cfg.Storage.RedisURL = f.redis
	}
	if f.key != "" {
		cfg.Storage.Key = f.key
	}
}

// logLastSaved reports when the board in the sqlite file was last written.
func logLastSaved(kv *db.KV, cfg config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.Timeout)
	defer cancel()

	updatedAt, err := kv.UpdatedAt(ctx, cfg.Storage.Key)
	if errors.Is(err, storage.ErrNotFound) {
		log.WithField("key", cfg.Storage.Key).Info("no saved board, starting from the demo board")
		return
	}
	if err != nil {
		log.WithError(err).Warn("read board timestamp")
		return
	}
	log.WithFields(log.Fields{
		"key":        cfg.Storage.Key,
		"updated_at": updatedAt.Format(time.RFC3339),
	}).Info("board loaded")
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

// setupLogging configures the level and, when the TUI owns the terminal,
// sends log output to lazyboard.log next to the database.
func setupLogging(cfg config.Config, toFile bool) (io.Closer, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if !toFile {
		return nil, nil
	}
	if err := config.EnsureDir(cfg.DBPath); err != nil {
		return nil, err
	}
	path := filepath.Join(filepath.Dir(cfg.DBPath), "lazyboard.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(file)
	return file, nil
}

func openBackend(cfg config.Config) (storage.Backend, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		opts, err := storage.ParseRedisOptions(cfg.Storage.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis not reachable, board changes may not persist")
		}
		backend := storage.NewRedis(client, cfg.Storage.RedisTTL)
		return backend, func() { _ = backend.Close() }, nil
	case config.BackendMemory:
		return storage.NewMemory(), func() {}, nil
	default:
		if err := config.EnsureDir(cfg.DBPath); err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return db.NewKV(sqlDB), func() { _ = sqlDB.Close() }, nil
	}
}
