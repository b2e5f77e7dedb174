package handlers

import (
	"net/http"

	"archive-backend/internal/middleware"
	"archive-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterDeps holds everything the HTTP routes are served from
type RouterDeps struct {
	Items          *services.ItemService
	Images         *services.ImageService
	Users          *services.UserService
	Hub            *services.WSHub
	Verifier       middleware.SessionVerifier
	MaxUploadBytes int64
}

// NewRouter wires handlers and middleware into a chi router
func NewRouter(deps RouterDeps) http.Handler {
	itemHandler := NewItemHandler(deps.Items)
	imageHandler := NewImageHandler(deps.Images, deps.MaxUploadBytes)
	userHandler := NewUserHandler(deps.Users)
	wsHandler := NewWebSocketHandler(deps.Hub, deps.Verifier)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/items", itemHandler.ListItems)
		r.Get("/items/{item_id}", itemHandler.GetItem)
		r.Post("/users", userHandler.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(deps.Verifier))
			r.Post("/items", itemHandler.CreateItem)
			r.Patch("/items/{item_id}", itemHandler.UpdateItem)
			r.Put("/items/{item_id}/images/{image_id}/primary", imageHandler.SetPrimaryImage)
			r.Post("/upload", imageHandler.UploadImage)
			r.Delete("/upload/delete", imageHandler.DeleteImage)
		})
	})

	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
