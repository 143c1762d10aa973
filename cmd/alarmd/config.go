package main

import (
	"fmt"
	"strings"

	"github.com/lomoval/alarmd/internal/logger"
	"github.com/lomoval/alarmd/internal/rabbit"
	internalhttp "github.com/lomoval/alarmd/internal/server/http"
	"github.com/lomoval/alarmd/internal/storagebuilder"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

type NotifierConfig struct {
	Type string
}

type Config struct {
	HTTPServer internalhttp.Config
	Logger     logger.Config
	Storage    storagebuilder.Config
	Notifier   NotifierConfig
	Rabbit     rabbit.Config
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	viper.SetConfigFile(configFile)

	viper.SetDefault("httpServer.host", "127.0.0.1")
	viper.SetDefault("httpServer.port", "8080")
	viper.SetDefault("logger.level", "WARN")
	viper.SetDefault("storage.storageType", "sqlite")
	viper.SetDefault("storage.database.path", "./alarms.db")
	viper.SetDefault("notifier.type", "log")
	viper.SetDefault("rabbit.host", "127.0.0.1")
	viper.SetDefault("rabbit.port", "5672")
	viper.SetDefault("rabbit.user", "user")
	viper.SetDefault("rabbit.password", "pass")
	viper.SetDefault("rabbit.queue", "alarmd.notify")

	err := viper.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := viper.AllKeys()
	for _, key := range keys {
		env := viper.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			err := viper.BindEnv(key, env[len(envConfigPrefix):])
			if err != nil {
				return Config{}, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}
