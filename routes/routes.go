package routes

import (
	"net/http"

	"github.com/Dosada05/notes-app/docs"
	"github.com/Dosada05/notes-app/handlers"
	"github.com/Dosada05/notes-app/middleware"
	"github.com/Dosada05/notes-app/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Organization *handlers.OrganizationHandler
	Note         *handlers.NoteHandler
	WebSocket    *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, tokens *services.TokenIssuer, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	// cookie передаются кросс-доменно, поэтому AllowCredentials и явный список origin
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(tokens)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Get(docs.SpecPath, docs.SpecHandler)
	router.Get("/swagger/*", docs.UIHandler())

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)
			// logout доступен и с просроченным access токеном
			r.Post("/logout", h.Auth.Logout)

			r.With(authenticate).Get("/me", h.Auth.Me)
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/", h.Organization.List)
			r.Post("/", h.Organization.Create)

			r.Route("/{orgID}", func(r chi.Router) {
				r.Get("/", h.Organization.Get)
				r.Post("/select", h.Organization.Select)
				r.Post("/members", h.Organization.AddMember)
				r.Delete("/members/{userID}", h.Organization.RemoveMember)

				r.Route("/notes", func(r chi.Router) {
					r.Get("/tree", h.Note.Tree)
					r.Post("/", h.Note.Create)
					r.Get("/{noteID}", h.Note.Get)
					r.Patch("/{noteID}", h.Note.Update)
					r.Delete("/{noteID}", h.Note.Delete)
					r.Post("/{noteID}/move", h.Note.Move)
					r.Post("/{noteID}/attachments", h.Note.UploadAttachment)
				})
			})
		})
	})

	router.With(authenticate).Get("/ws/organizations/{orgID}", h.WebSocket.ServeWs)
}
