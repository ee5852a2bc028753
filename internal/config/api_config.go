package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	apiBaseURLVar  = "API_BASE_URL"
	httpTimeoutVar = "HTTP_TIMEOUT"
	loginPathVar   = "LOGIN_PATH"
	homePathVar    = "HOME_PATH"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetLoginPath() string
	GetHomePath() string
}

type API struct {
	v *viper.Viper
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the storefront API origin without a trailing slash (e.g. "http://localhost:5001")
func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(a.v.GetString(apiBaseURLVar), "/")
}

// GetHTTPTimeout returns zero unless configured, meaning requests never time out
func (a API) GetHTTPTimeout() time.Duration {
	return a.v.GetDuration(httpTimeoutVar)
}

func (a API) GetLoginPath() string {
	return a.v.GetString(loginPathVar)
}

func (a API) GetHomePath() string {
	return a.v.GetString(homePathVar)
}
