package config

import "github.com/spf13/viper"

const (
	logLevelVar = "LOG_LEVEL"
	logFileVar  = "LOG_FILE"
)

type LogConfig interface {
	GetLogLevel() string
	GetLogFile() string
}

type Logging struct {
	v *viper.Viper
}

var _ LogConfig = Logging{}

func (l Logging) GetLogLevel() string {
	return l.v.GetString(logLevelVar)
}

// GetLogFile is an optional path for a rotated log file written alongside stderr.
func (l Logging) GetLogFile() string {
	return l.v.GetString(logFileVar)
}
