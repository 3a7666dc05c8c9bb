package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/imaxbooking/chat-server/auth"
	"github.com/imaxbooking/chat-server/store"
)

type ApiConfig struct {
	AllowedOrigins []string
}

// Api is the HTTP boundary of the chat service: the websocket endpoint the
// hub serves, and the REST endpoints clients use to bootstrap.
type Api struct {
	mux    chi.Router
	config ApiConfig
}

func NewApi(verifier auth.Verifier, messageStore store.MessageStore, ws http.Handler, config ApiConfig) *Api {
	a := &Api{
		mux:    chi.NewRouter(),
		config: config,
	}
	a.mountHandlers(verifier, messageStore, ws)
	return a
}

func (a *Api) Mux() http.Handler {
	return a.mux
}

func (a *Api) mountHandlers(verifier auth.Verifier, messageStore store.MessageStore, ws http.Handler) {
	chatHandler := NewChatHandler(messageStore)

	a.mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
	}))

	a.mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJsonResponse(w, map[string]string{"status": "ok"})
	})

	a.mux.Handle("/ws", ws)

	a.mux.Group(func(r chi.Router) {
		r.Use(JWTMiddleware(verifier))
		r.Method(http.MethodGet, "/chat/history", ApiHandleFunc(chatHandler.HistoryHandler))
	})
}
