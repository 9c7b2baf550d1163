package service

import (
	"github.com/MKhiriev/profile-sync/internal/logger"
)

// ErrorReporterFunc adapts a function to [ErrorReporter].
type ErrorReporterFunc func(err *SyncError)

func (f ErrorReporterFunc) Report(err *SyncError) { f(err) }

type logErrorReporter struct {
	logger *logger.Logger
}

// NewLogErrorReporter reports user-visible sync errors to the log.
func NewLogErrorReporter(log *logger.Logger) ErrorReporter {
	return &logErrorReporter{logger: log.Component("reporter")}
}

func (r *logErrorReporter) Report(err *SyncError) {
	if err.Kind == KindFatalAuth {
		r.logger.Error().Err(err.Err).Str("op", err.Op).
			Msg("sync stopped: authentication required")
		return
	}
	r.logger.Warn().Err(err.Err).Str("op", err.Op).Str("kind", string(err.Kind)).
		Msg("sync failed, retrying in background")
}
