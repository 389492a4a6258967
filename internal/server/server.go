package server

import (
	"log/slog"
	"net/http"

	"ReplyDesk/internal/chatbot"
	"ReplyDesk/internal/clipboard"
	"ReplyDesk/internal/config"
	"ReplyDesk/internal/desk"
	"ReplyDesk/internal/live"
)

// Deps wires the HTTP surface.
type Deps struct {
	Config    config.ServerConfig
	Desk      *desk.Desk
	Chat      *chatbot.ChatBot
	Clipboard *clipboard.Buffer
	Connector live.Connector
	Live      live.Config
	Logger    *slog.Logger
}

type Server struct {
	desk      *desk.Desk
	chat      *chatbot.ChatBot
	clipboard *clipboard.Buffer
	logger    *slog.Logger
}

// New returns the JSON and WebSocket API of the desk.
func New(d Deps) http.Handler {
	s := &Server{desk: d.Desk, chat: d.Chat, clipboard: d.Clipboard, logger: d.Logger}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /messages", s.handleListMessages)
	mux.HandleFunc("POST /messages/{id}/copy", s.handleCopySuggestion)
	mux.HandleFunc("POST /messages/{id}/retry", s.handleRetrySuggestion)

	mux.HandleFunc("GET /quick-responses", s.handleListQuickResponses)
	mux.HandleFunc("POST /quick-responses", s.handleAddQuickResponse)
	mux.HandleFunc("PUT /quick-responses/{id}", s.handleUpdateQuickResponse)
	mux.HandleFunc("DELETE /quick-responses/{id}", s.handleDeleteQuickResponse)

	mux.HandleFunc("GET /calendar/slots", s.handleListSlots)
	mux.HandleFunc("POST /calendar/slots/{id}/offer", s.handleOfferSlot)

	mux.HandleFunc("GET /history", s.handleListHistory)
	mux.HandleFunc("GET /reports", s.handleReport)

	mux.HandleFunc("GET /chat", s.handleGetChat)
	mux.HandleFunc("POST /chat/messages", s.handleSendChat)
	mux.HandleFunc("POST /chat/competitors", s.handleCompetitors)
	mux.HandleFunc("POST /chat/sessions", s.handleNewChatSession)

	mux.HandleFunc("GET /notice", s.handleGetNotice)
	mux.HandleFunc("DELETE /notice", s.handleDismissNotice)

	mux.HandleFunc("GET /clipboard", s.handleClipboard)

	mux.Handle("GET /live", &liveHandler{
		cfg:            d.Live,
		connector:      d.Connector,
		notices:        d.Desk.Notices(),
		allowedOrigins: d.Config.AllowedOrigins,
		logger:         d.Logger,
	})

	return chainMiddlewares(mux,
		withRecover(d.Logger),
		withLogging(d.Logger),
		withCORS(d.Config.AllowedOrigins),
		withRequestID(d.Logger),
	)
}
