package httpapi

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/auth"
	"github.com/vladislavdragonenkov/orderdesk/internal/i18n"
	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
)

type langKey struct{}

func langFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok {
		return lang
	}
	return i18n.LangID
}

// locale выбирает язык ответа из ?lang= или Accept-Language.
func locale(localizer *i18n.Localizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := localizer.Detect(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), langKey{}, lang)))
		})
	}
}

// accessLog пишет одну строку лога на запрос.
func accessLog(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			entry := logger.WithFields(log.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(started).String(),
				"remote":     r.RemoteAddr,
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("http request")
				return
			}
			entry.Info("http request")
		})
	}
}

// instrument считает запросы и их длительность по шаблону маршрута.
func instrument(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			m.Observe(r.Method, route, ww.Status(), time.Since(started))
		})
	}
}

// recoverer превращает панику обработчика в ответ 500 в общем формате.
func recoverer(logger *log.Entry, localizer *i18n.Localizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.WithFields(log.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"panic":      rec,
					"stack":      string(debug.Stack()),
				}).Error("panic in http handler")
				writeEnvelope(w, http.StatusInternalServerError,
					localizer.T(langFromContext(r.Context()), i18n.KeySystemError), nil)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate проверяет bearer-токен и кладёт владельца в контекст.
func authenticate(signer *auth.Signer, localizer *i18n.Localizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err == nil {
				var id auth.Identity
				id, err = signer.Parse(token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
					return
				}
			}
			if !errors.Is(err, auth.ErrMissingToken) {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			} else {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			writeEnvelope(w, http.StatusUnauthorized,
				localizer.T(langFromContext(r.Context()), i18n.KeyUnauthorized), nil)
		})
	}
}

// authorize пропускает запрос, только если роль владельца токена имеет право perm.
func authorize(policy *auth.Policy, localizer *i18n.Localizer, perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeEnvelope(w, http.StatusUnauthorized,
					localizer.T(langFromContext(r.Context()), i18n.KeyUnauthorized), nil)
				return
			}
			if !policy.Allowed(id.Role, perm) {
				writeEnvelope(w, http.StatusForbidden,
					localizer.T(langFromContext(r.Context()), i18n.KeyForbidden), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
