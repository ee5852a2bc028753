package config

import (
	"time"

	"github.com/spf13/viper"
)

const pollIntervalVar = "POLL_INTERVAL"

const minPollInterval = time.Second

type SyncConfig interface {
	GetPollInterval() time.Duration
}

type Sync struct {
	v *viper.Viper
}

var _ SyncConfig = Sync{}

func (s Sync) GetPollInterval() time.Duration {
	interval := s.v.GetDuration(pollIntervalVar)
	if interval < minPollInterval {
		return minPollInterval
	}
	return interval
}
