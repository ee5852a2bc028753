package config

import (
	"os"

	"github.com/spf13/viper"
)

const configFileEnvVar = "STOREFRONT_CONFIG"

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	SyncConfig
}

type mainConfig struct {
	EnvVars
	API
	Session
	Sync
}

// New loads configuration from defaults, an optional config file and the environment,
// in increasing order of precedence.
func New() Config {
	v := viper.New()
	if file := os.Getenv(configFileEnvVar); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
	}
	_ = v.ReadInConfig() // a missing file is fine
	v.AutomaticEnv()
	return NewFromViper(v)
}

// NewFromViper builds a Config over an existing viper instance, applying defaults for unset keys.
func NewFromViper(v *viper.Viper) Config {
	setDefaults(v)
	return mainConfig{
		EnvVars: EnvVars{v: v},
		API:     API{v: v},
		Session: Session{v: v},
		Sync:    Sync{v: v},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(appNameVar, "She and Shine")
	v.SetDefault(envVar, "DEV")
	v.SetDefault(logLevelVar, "info")
	v.SetDefault(folderEnvVar, "./data")
	v.SetDefault(apiBaseURLVar, "http://localhost:5001")
	v.SetDefault(httpTimeoutVar, "0s")
	v.SetDefault(loginPathVar, "/login")
	v.SetDefault(homePathVar, "/")
	v.SetDefault(sessionFileVar, "session.json")
	v.SetDefault(sessionPassphraseVar, "")
	v.SetDefault(pollIntervalVar, "30s")
}
