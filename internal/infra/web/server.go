package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"learnloop/internal/infra/logging"
	"learnloop/internal/infra/redis"
	"learnloop/internal/usecase"
)

type Server struct {
	studyUC    usecase.StudyUseCase
	quizUC     usecase.QuizUseCase
	statsUC    usecase.StatsUseCase
	generateUC usecase.GenerateUseCase
	auth       *AuthManager
	limiter    *redis.RateLimiter
	rateLimit  int
	rateWindow time.Duration
	log        *zerolog.Logger
}

func NewServer(
	studyUC usecase.StudyUseCase,
	quizUC usecase.QuizUseCase,
	statsUC usecase.StatsUseCase,
	generateUC usecase.GenerateUseCase,
	auth *AuthManager,
	limiter *redis.RateLimiter,
	rateLimit, rateWindowSec int,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		studyUC:    studyUC,
		quizUC:     quizUC,
		statsUC:    statsUC,
		generateUC: generateUC,
		auth:       auth,
		limiter:    limiter,
		rateLimit:  rateLimit,
		rateWindow: time.Duration(rateWindowSec) * time.Second,
		log:        logger,
	}
}

// Router assembles the full route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/session", s.sessionHandler())

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Use(s.rateLimitMiddleware)

			r.Get("/study/session", s.studySessionHandler())
			r.Post("/study/answer", s.studyAnswerHandler())

			r.Get("/quiz", s.quizListHandler())
			r.Delete("/quiz/{id}", s.quizDeleteHandler())
			r.Patch("/quiz/{id}/progress", s.quizProgressHandler())

			r.Get("/stats", s.statsHandler())
			r.Post("/generate", s.generateHandler())
			r.Post("/batch/requests", s.batchRequestHandler())
		})
	})
	return r
}

type ctxKey string

const ctxClaims ctxKey = "claims"

// authMiddleware validates the session token and stashes the claims.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxClaims, claims)
		ctx = logging.WithUserID(ctx, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitMiddleware runs a fixed-window counter per user and route. Redis
// being down fails open: losing rate limiting is cheaper than losing the API.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || s.rateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		claims := claimsFrom(r.Context())
		key := redis.UserRequestKey(claims.UserID, r.Method+" "+r.URL.Path)
		allowed, err := s.limiter.Allow(r.Context(), key, s.rateLimit, s.rateWindow)
		if err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(ctx context.Context) *UserClaims {
	if c, ok := ctx.Value(ctxClaims).(*UserClaims); ok {
		return c
	}
	return &UserClaims{}
}
