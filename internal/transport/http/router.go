package http

import (
	"net/http"
	"time"

	"github.com/cwrk-planet/relay-service/internal/ratelimit"
	httpmw "github.com/cwrk-planet/relay-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/relay-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Handler *Handler
	WS      http.HandlerFunc

	LoginLimiter ratelimit.Limiter
	RoomLimiter  ratelimit.Limiter

	AllowedOrigins []string

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Only set it behind a proxy that overwrites those headers;
	// otherwise clients choose their own rate limit key.
	TrustProxyHeaders bool
}

func NewRouter(d Deps) http.Handler {
	if d.LoginLimiter == nil {
		d.LoginLimiter = ratelimit.Nop{}
	}
	if d.RoomLimiter == nil {
		d.RoomLimiter = ratelimit.Nop{}
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := d.Handler

	r := chi.NewRouter()
	if d.TrustProxyHeaders {
		r.Use(middlewareChi.RealIP)
	}
	r.Use(middlewareChi.Recoverer)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httputil.MiddlewareLogging)

	// WS endpoint; the realtime channel is not authenticated
	if d.WS != nil {
		r.Get("/ws", d.WS)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		api.Use(middlewareChi.Timeout(30 * time.Second))

		api.With(httpmw.RateLimit(d.LoginLimiter, "login")).Post("/login", h.Login)

		api.Group(func(pr chi.Router) {
			pr.Use(httpmw.AuthMiddleware(h.authSvc))

			pr.With(httpmw.RateLimit(d.RoomLimiter, "create-room")).Post("/create-room", h.CreateRoom)
			pr.Post("/join-room", h.JoinRoom)
			pr.Get("/rooms", h.ListRooms)
			pr.Get("/rooms/{name}", h.GetRoom)
		})
	})

	return r
}
