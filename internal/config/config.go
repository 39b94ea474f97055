package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "KIROSUMI"

var configFileName string
var configFilePath string

// SetConfig는 환경별 설정 파일을 읽고 KIROSUMI_ 환경변수로 덮어씁니다
func SetConfig(goEnv string) {
	log.Info().Msgf("Loading configuration for environment: %s", goEnv)

	v := viper.New()
	v.AddConfigPath("config")
	v.SetConfigType("yaml")

	if goEnv == "production" {
		configFileName = "config.prod"
	} else {
		configFileName = "config.dev"
	}
	v.SetConfigName(configFileName)

	applyDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to read config file")
	}

	configFilePath = v.ConfigFileUsed()
	log.Info().Msgf("Config file loaded: %s", configFilePath)

	if err := v.Unmarshal(&Conf); err != nil {
		log.Fatal().Err(err).Msg("Failed to unmarshal config")
	}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.webdav_enabled", true)
	v.SetDefault("server.sftp_enabled", false)
	v.SetDefault("server.sftp_port", 2222)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "data/kirosumi.db")
	v.SetDefault("auth.issuer", "kirosumi")
	v.SetDefault("auth.access_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("auth.allow_signup", true)
	v.SetDefault("redis.modal_ttl", 24*time.Hour)
	v.SetDefault("export.bucket", "kirosumi-exports")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// ConfigDir는 로드된 설정 파일이 위치한 디렉토리를 반환합니다
func ConfigDir() string {
	if configFilePath == "" {
		return ""
	}
	return filepath.Dir(configFilePath)
}

// SaveConfig는 설정을 YAML 파일에 저장합니다
func SaveConfig() error {
	data, err := yaml.Marshal(&Conf)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFilePath, data, 0600); err != nil {
		return err
	}

	log.Info().Msgf("Configuration saved to %s", configFilePath)
	return nil
}
