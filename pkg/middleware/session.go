package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/utafrali/shopvista/pkg/httputil"
)

// SessionIDHeader identifies the storefront session a request belongs to.
const SessionIDHeader = "X-Session-ID"

type contextKeyType string

const sessionIDKey contextKeyType = "session_id"

// Session resolves the storefront session for each request. A valid UUID in the
// X-Session-ID header is reused; when the header is absent a new session ID is
// minted. The resolved ID is echoed on the response so the client can keep it.
// A malformed header is rejected with 400.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(SessionIDHeader)

		var id uuid.UUID
		if raw == "" {
			id = uuid.New()
		} else {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "INVALID_SESSION",
						Message: SessionIDHeader + " must be a valid UUID",
					},
				})
				return
			}
			id = parsed
		}

		sessionID := id.String()
		w.Header().Set(SessionIDHeader, sessionID)
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
	})
}

// WithSessionID stores the session ID in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session ID resolved by the Session middleware.
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}
