package logutils

import "go.uber.org/zap"

// Levels lists the accepted values of the log-level setting.
var Levels = []string{
	zap.DebugLevel.String(),
	zap.InfoLevel.String(),
	zap.WarnLevel.String(),
	zap.ErrorLevel.String(),
	zap.DPanicLevel.String(),
	zap.PanicLevel.String(),
	zap.FatalLevel.String(),
}

// ValidLevel reports whether level is one of Levels.
func ValidLevel(level string) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}
