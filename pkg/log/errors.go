package log

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

func attachError(e *zerolog.Event, err error) {
	e.Err(err)
	if st := extractStacktrace(err); st != "" {
		e.Str(StacktraceKey, st)
	}
	var m zerolog.LogObjectMarshaler
	if errors.As(err, &m) {
		e.Object(ErrorDetailKey, m)
	}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
