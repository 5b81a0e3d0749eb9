package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cassandra-vlf/cassandra/internal/api/http"
	"github.com/cassandra-vlf/cassandra/internal/db"
	"github.com/cassandra-vlf/cassandra/internal/discovery"
	"github.com/cassandra-vlf/cassandra/internal/remote"
	"github.com/cassandra-vlf/cassandra/internal/search"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log      LogConfig             `mapstructure:"log"`
	Http     http.Config           `mapstructure:"http"`
	Stations StationsConfig        `mapstructure:"stations"`
	Files    FilesConfig           `mapstructure:"files"`
	Search   search.Config         `mapstructure:"search"`
	Remote   remote.Config         `mapstructure:"remote"`
	Cache    discovery.CacheConfig `mapstructure:"cache"`
	Catalog  db.Config             `mapstructure:"catalog"`
}

type StationsConfig struct {
	File    string `mapstructure:"file"`
	Default string `mapstructure:"default"`
}

type FilesConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

var config Config

func InitConfig() {
	_ = godotenv.Load()

	viper.SetConfigName("application")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./cmd/cassandra-server")
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("files.base_url", "FILE_SERVER_URL")
	_ = viper.BindEnv("catalog.url", "DATABASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}

	if err := viper.Unmarshal(&config); err != nil {
		panic(err)
	}

	initLogger(config.Log.Level)

	if strings.ToUpper(config.Log.Level) == LOG_LEVEL_DEBUG {
		redacted := config
		if redacted.Http.AdminAPIKey != "" {
			redacted.Http.AdminAPIKey = "***"
		}
		if redacted.Catalog.Url != "" {
			redacted.Catalog.Url = "***"
		}
		configJSON, err := json.MarshalIndent(redacted, "", "  ")
		if err == nil {
			fmt.Println("Config loaded:")
			fmt.Println(string(configJSON))
		}
	}
}
