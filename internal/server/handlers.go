package server

import (
	"errors"
	"net/http"

	"ReplyDesk/internal/clipboard"
	"ReplyDesk/internal/model"
	"ReplyDesk/internal/session"
	"ReplyDesk/internal/suggest"
)

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Suggestions
// ─────────────────────────────────────────────

func (s *Server) handleListMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.desk.Messages())
}

func (s *Server) handleCopySuggestion(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	res, err := s.desk.CopySuggestion(r.Context(), r.PathValue("id"), req.Text)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRetrySuggestion(w http.ResponseWriter, r *http.Request) {
	err := s.desk.RetrySuggestion(r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	case errors.Is(err, suggest.ErrNotRetryable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.storeError(w, r, err)
	}
}

// ─────────────────────────────────────────────
// Quick responses
// ─────────────────────────────────────────────

func (s *Server) handleListQuickResponses(w http.ResponseWriter, r *http.Request) {
	list, err := s.desk.QuickResponses().List(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddQuickResponse(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	qr, err := s.desk.QuickResponses().Add(r.Context(), req.Text)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, qr)
}

func (s *Server) handleUpdateQuickResponse(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	qr, err := s.desk.QuickResponses().Update(r.Context(), r.PathValue("id"), req.Text)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qr)
}

func (s *Server) handleDeleteQuickResponse(w http.ResponseWriter, r *http.Request) {
	if err := s.desk.QuickResponses().Delete(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Calendar, history and reports
// ─────────────────────────────────────────────

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := s.desk.Slots(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (s *Server) handleOfferSlot(w http.ResponseWriter, r *http.Request) {
	res, err := s.desk.OfferSlot(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.desk.History(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.HistoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	stats, err := s.desk.Report(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ─────────────────────────────────────────────
// Chat
// ─────────────────────────────────────────────

type chatResponse struct {
	Session              session.Session `json:"session"`
	AwaitingBusinessType bool            `json:"awaiting_business_type"`
	Reply                string          `json:"reply,omitempty"`
}

func (s *Server) chatState(reply string) chatResponse {
	return chatResponse{
		Session:              s.chat.Transcript(),
		AwaitingBusinessType: s.chat.AwaitingBusinessType(),
		Reply:                reply,
	}
}

func (s *Server) handleGetChat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.chatState(""))
}

func (s *Server) handleSendChat(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	reply, err := s.chat.Send(r.Context(), req.Text)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.chatState(reply))
}

func (s *Server) handleCompetitors(w http.ResponseWriter, _ *http.Request) {
	s.chat.RequestCompetitorAnalysis()
	writeJSON(w, http.StatusOK, s.chatState(""))
}

func (s *Server) handleNewChatSession(w http.ResponseWriter, r *http.Request) {
	s.chat.NewSession(r.Context())
	writeJSON(w, http.StatusCreated, s.chatState(""))
}

// ─────────────────────────────────────────────
// Notice and clipboard
// ─────────────────────────────────────────────

func (s *Server) handleGetNotice(w http.ResponseWriter, _ *http.Request) {
	n, ok := s.desk.Notices().Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, _ *http.Request) {
	s.desk.Notices().Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

type clipboardResponse struct {
	Status clipboard.Status `json:"status"`
	Text   string           `json:"text"`
}

func (s *Server) handleClipboard(w http.ResponseWriter, _ *http.Request) {
	resp := clipboardResponse{Status: s.desk.Copier().Status()}
	if s.clipboard != nil {
		resp.Text = s.clipboard.Last()
	}
	writeJSON(w, http.StatusOK, resp)
}

// storeError maps domain errors to status codes.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		notFound(w)
	case errors.Is(err, model.ErrEmptyText):
		badRequest(w, "text is required")
	default:
		loggerFrom(r.Context(), s.logger).Error("request failed", "error", err)
		internalError(w, err)
	}
}
