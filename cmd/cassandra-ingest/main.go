package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/catalog"
	"github.com/cassandra-vlf/cassandra/internal/db"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mount    string    `mapstructure:"mount"`
	Stations []string  `mapstructure:"stations"`
	Catalog  db.Config `mapstructure:"catalog"`
	LogLevel string    `mapstructure:"log_level"`
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	initLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Ingest failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(args []string) (Config, error) {
	_ = godotenv.Load()

	flags := pflag.NewFlagSet("cassandra-ingest", pflag.ContinueOnError)
	flags.String("mount", "/mnt/vlf", "directory holding one folder per station")
	flags.StringSlice("stations", nil, "stations to scan (default: every folder under --mount)")
	flags.String("db-url", "", "catalog database URL")
	flags.String("db-schema", "cassandra", "catalog database schema")
	flags.String("log-level", "INFO", "ERROR, WARNING, INFO or DEBUG")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("catalog.url", "DATABASE_URL")

	_ = v.BindPFlag("mount", flags.Lookup("mount"))
	_ = v.BindPFlag("stations", flags.Lookup("stations"))
	_ = v.BindPFlag("catalog.url", flags.Lookup("db-url"))
	_ = v.BindPFlag("catalog.schema", flags.Lookup("db-schema"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if !cfg.Catalog.Enabled() {
		return Config{}, fmt.Errorf("--db-url or DATABASE_URL is required")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg Config) error {
	start := time.Now()

	if err := db.RunMigrations(ctx, cfg.Catalog); err != nil {
		return err
	}
	pool, err := db.InitDB(ctx, cfg.Catalog)
	if err != nil {
		return err
	}
	defer pool.Close()

	entries, err := catalog.Scan(cfg.Mount, cfg.Stations...)
	if err != nil {
		return err
	}

	inserted, err := catalog.NewStore(pool).Upsert(ctx, entries)
	if err != nil {
		return err
	}

	slog.Info("Ingest complete",
		"mount", cfg.Mount,
		"scanned", len(entries),
		"inserted", inserted,
		"duration", time.Since(start))
	return nil
}

func initLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "ERROR":
		level = slog.LevelError
	case "WARNING":
		level = slog.LevelWarn
	case "DEBUG":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
