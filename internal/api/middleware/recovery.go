package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/api/models"
)

// MsgPanic is the detail of the problem returned for a recovered panic.
const MsgPanic = "an unexpected error occurred"

// Recovery turns a handler panic into a 500 problem response and logs it with
// the stack. http.ErrAbortHandler is re-raised so net/http aborts the
// connection. When the handler already started the response, only the log
// entry is written.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				requestID := GetRequestID(r.Context())
				log.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("route", routePattern(r)).
					Str("panic", fmt.Sprint(rec)).
					Bool("response_started", sw.committed()).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")

				if sw.committed() {
					return
				}
				problem := models.NewInternalError(requestID, MsgPanic)
				problem.Instance = r.URL.Path
				problem.Write(sw)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
