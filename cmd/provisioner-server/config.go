package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/EternisAI/sketch-provisioner/internal/api/http"
	"github.com/EternisAI/sketch-provisioner/internal/archives"
	"github.com/EternisAI/sketch-provisioner/internal/auth"
	"github.com/EternisAI/sketch-provisioner/internal/controlqueue"
	"github.com/EternisAI/sketch-provisioner/internal/credentials"
	"github.com/EternisAI/sketch-provisioner/internal/db"
	"github.com/EternisAI/sketch-provisioner/internal/provisioning"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log          LogConfig           `mapstructure:"log"`
	Http         http.Config         `mapstructure:"http"`
	DB           db.Config           `mapstructure:"db"`
	JWT          auth.Config         `mapstructure:"jwt"`
	Credentials  credentials.Config  `mapstructure:"credentials"`
	Provisioning provisioning.Config `mapstructure:"provisioning"`
	ControlQueue controlqueue.Config `mapstructure:"control_queue"`
	Archives     archives.Config     `mapstructure:"archives"`
}

// Secrets are redacted before the config is printed.
func (c Config) redacted() Config {
	const mask = "********"
	if c.JWT.Secret != "" {
		c.JWT.Secret = mask
	}
	if c.Credentials.SigningKey != "" {
		c.Credentials.SigningKey = mask
	}
	if c.Http.AdminAPIKey != "" {
		c.Http.AdminAPIKey = mask
	}
	if c.DB.Url != "" {
		c.DB.Url = mask
	}
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", LOG_LEVEL_INFO)
	v.SetDefault("http.port", 8080)
	v.SetDefault("db.schema", "public")
	v.SetDefault("provisioning.templates_root", "./sketches")
	v.SetDefault("provisioning.archives_root", "./archives")
	v.SetDefault("provisioning.device_type", "raspberrypi")
	v.SetDefault("archives.retention", "1h")
	v.SetDefault("archives.sweep_interval", "5m")
	v.SetDefault("archives.s3.presign_ttl", "15m")
}

func loadConfig(v *viper.Viper) (Config, error) {
	var config Config

	v.SetConfigName("application")
	v.AddConfigPath(".")
	v.AddConfigPath("./cmd/provisioner-server")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Secrets usually come from the environment only, so viper has to know
	// the keys up front.
	for _, key := range []string{"db.url", "jwt.secret", "credentials.signing_key", "http.admin_api_key", "control_queue.endpoint", "archives.s3.bucket"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func InitConfig() Config {
	_ = godotenv.Load()

	config, err := loadConfig(viper.GetViper())
	if err != nil {
		panic(err)
	}

	initLogger(config.Log.Level)

	if strings.ToUpper(config.Log.Level) == LOG_LEVEL_DEBUG {
		configJSON, err := json.MarshalIndent(config.redacted(), "", "  ")
		if err == nil {
			fmt.Println("Config loaded:")
			fmt.Println(string(configJSON))
		}
	}
	return config
}
