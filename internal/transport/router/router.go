package router

import (
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/leotorrealba/Kratostech-Converter/internal/config"
	"github.com/leotorrealba/Kratostech-Converter/internal/transport/handler"
)

func NewRouter(h *handler.Handler, cfg *config.Config, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Page-Count"},
		MaxAge:         300,
	}))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/ping", h.Ping)
	r.Get("/formats", h.Formats)

	r.Group(func(r chi.Router) {
		if n := cfg.HTTP.RateLimitPerMinute; n > 0 {
			r.Use(httprate.Limit(n, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusTooManyRequests)
					_, _ = w.Write([]byte(`{"message":"Too many requests"}` + "\n"))
				}),
			))
		}

		r.Route("/convert", func(r chi.Router) {
			r.Post("/image", h.ConvertImage)
			r.Post("/word-to-pdf", h.ConvertWordToPDF)
			r.Post("/pdf-to-word", h.ConvertPDFToWord)
		})

		// Paths the first web client posted to.
		r.Route("/api", func(r chi.Router) {
			r.Post("/convert-image", h.ConvertImage)
			r.Post("/convert-word-to-pdf", h.ConvertWordToPDF)
			r.Post("/convert-pdf-to-word", h.ConvertPDFToWord)
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
