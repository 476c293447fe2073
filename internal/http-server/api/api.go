package api

import (
	"SourceHub/internal/config"
	"SourceHub/internal/http-server/handlers/admin"
	"SourceHub/internal/http-server/handlers/chat"
	"SourceHub/internal/http-server/handlers/errors"
	"SourceHub/internal/http-server/handlers/files"
	"SourceHub/internal/http-server/handlers/legend"
	"SourceHub/internal/http-server/handlers/project"
	"SourceHub/internal/http-server/handlers/system"
	"SourceHub/internal/http-server/middleware/authenticate"
	"SourceHub/internal/http-server/middleware/logger"
	"SourceHub/internal/http-server/middleware/ratelimit"
	"SourceHub/internal/lib/sl"
	"SourceHub/internal/ws"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	handler    Handler
	hub        *ws.Hub
	wsAuth     ws.Authenticator
	signer     files.Verifier
	log        *slog.Logger
	rawLog     *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	chat.Core
	project.Core
	admin.Core
	legend.Core
	system.Core
	files.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) *Server {
	return &Server{
		conf:    conf,
		handler: handler,
		log:     log.With(sl.Module("api.server")),
		rawLog:  log,
	}
}

// SetHub enables the websocket endpoint.
func (s *Server) SetHub(hub *ws.Hub, auth ws.Authenticator) {
	s.hub = hub
	s.wsAuth = auth
}

// SetSigner enables signed file downloads.
func (s *Server) SetSigner(signer files.Verifier) {
	s.signer = signer
}

// Router builds the full route tree.
func (s *Server) Router() http.Handler {
	log := s.rawLog
	handler := s.handler

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.conf.Listen.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", project.VisitorHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Handle("/metrics", promhttp.Handler())

	if s.hub != nil {
		router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWs(s.hub, s.wsAuth, log, w, r)
		})
	}

	router.Route("/api", func(api chi.Router) {
		api.Use(middleware.Compress(5))
		api.Use(render.SetContentType(render.ContentTypeJSON))
		if s.conf.RateLimit.Requests > 0 {
			api.Use(ratelimit.New(s.conf.RateLimit.Requests, s.conf.RateLimit.Window))
		}

		api.Get("/health", system.Health(log, handler))
		api.Get("/db-status", system.DatabaseStatus(log, handler))
		api.Get("/stats", project.Stats(log, handler))

		api.Route("/projects", func(r chi.Router) {
			r.Get("/", project.List(log, handler))
			r.Get("/search", project.Search(log, handler))
			r.Get("/{id}", project.Get(log, handler))
			r.Post("/{id}/like", project.Like(log, handler))
			r.Post("/{id}/download", project.Download(log, handler))
			r.Get("/{id}/download-file", project.DownloadFile(log, handler))
		})

		if s.signer != nil {
			api.Get("/files/{id}", files.Download(log, s.signer, handler))
		}

		api.Route("/legends", func(r chi.Router) {
			r.Get("/", legend.List(log, handler))
			r.Get("/{username}", legend.Get(log, handler))
		})

		api.Route("/chats", func(r chi.Router) {
			r.Post("/", chat.Start(log, handler))
			r.Get("/admin/{adminId}", chat.AdminChats(log, handler))
			r.Get("/{visitorId}", chat.VisitorChats(log, handler))
			r.Post("/{chatId}/messages", chat.SendMessage(log, handler))
		})

		api.Route("/admin", func(r chi.Router) {
			r.Post("/login", admin.Login(log, handler))

			r.Group(func(auth chi.Router) {
				auth.Use(authenticate.New(log, handler))

				auth.Post("/logout", admin.Logout(log, handler))
				auth.Get("/check-auth", admin.CheckAuth(log, handler))
				auth.Put("/profile", admin.UpdateProfile(log, handler))
				auth.Put("/password", admin.ChangePassword(log, handler))
				auth.Put("/photo", admin.UpdatePhoto(log, handler))
				auth.Get("/stats", admin.Stats(log, handler))

				auth.Post("/projects", project.Create(log, handler))
				auth.Put("/projects/{id}", project.Update(log, handler))
				auth.Delete("/projects/{id}", project.Delete(log, handler))
				auth.Get("/my-projects", project.MyProjects(log, handler))

				auth.Get("/chats", chat.AllChats(log, handler))
				auth.Put("/chats/{chatId}/close", chat.Close(log, handler))
				auth.Post("/chats/{chatId}/reply", chat.Reply(log, handler))
			})
		})
	})

	return router
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpLog := slog.NewLogLogger(s.rawLog.Handler(), slog.LevelError)
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ErrorLog:          httpLog,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(listener)
	}()

	select {
	case err = <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down api server")
	if err = s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err = <-serveErr; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
