package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	sessionFileVar       = "SESSION_FILE"
	sessionPassphraseVar = "SESSION_PASSPHRASE"
)

type SessionConfig interface {
	GetSessionFile() string
	GetSessionPassphrase() string
}

type Session struct {
	v *viper.Viper
}

var _ SessionConfig = Session{}

// GetSessionFile resolves relative session file names against the data folder
func (s Session) GetSessionFile() string {
	file := s.v.GetString(sessionFileVar)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.v.GetString(folderEnvVar), file)
}

// GetSessionPassphrase returns an empty string when the session file should be stored unsealed
func (s Session) GetSessionPassphrase() string {
	return s.v.GetString(sessionPassphraseVar)
}
