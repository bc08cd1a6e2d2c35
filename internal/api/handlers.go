// ABOUTME: HTTP handlers for the conversation REST API
// ABOUTME: Auth, roster, history, the send exchange and the language tools

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yopuedo360/yopuedo-chat/internal/auth"
	"github.com/yopuedo360/yopuedo-chat/internal/chat"
	"github.com/yopuedo360/yopuedo-chat/internal/dedupe"
	"github.com/yopuedo360/yopuedo-chat/internal/store"
	"github.com/yopuedo360/yopuedo-chat/internal/tutor"
)

// sendJSON writes v as a JSON response with the given status.
func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}

// sendJSONError writes an error response in the {"error": "..."} format.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, chat.ErrorResponse{Error: message})
}

// decodeBody parses a JSON request body into v, answering 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// storeError maps store errors onto responses.
func (s *Server) storeError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, what+" not found")
		return
	}
	s.logger.Error("store operation failed", "what", what, "error", err)
	s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
}

// handleLogin handles POST /auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req chat.LoginRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		s.sendJSONError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), req.Username)
	hash := ""
	switch {
	case err == nil:
		hash = user.PasswordHash
	case !errors.Is(err, store.ErrNotFound):
		s.storeError(w, err, "user")
		return
	}
	if err := auth.CheckPassword(hash, req.Password); err != nil {
		s.sendJSONError(w, http.StatusUnauthorized, auth.ErrBadCredentials.Error())
		return
	}

	access, refresh, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		s.logger.Error("failed to issue tokens", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	s.sendJSON(w, http.StatusOK, chat.TokenPair{Access: access, Refresh: refresh})
}

// handleRefresh handles POST /auth/refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req chat.RefreshRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	userID, err := s.tokens.Verify(req.Refresh, auth.TokenRefresh)
	if err != nil {
		s.sendJSONError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if _, err := s.store.GetUser(r.Context(), userID); err != nil {
		s.sendJSONError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	access, err := s.tokens.Generate(userID, auth.TokenAccess)
	if err != nil {
		s.logger.Error("failed to issue access token", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.sendJSON(w, http.StatusOK, chat.TokenPair{Access: access})
}

// handleMe handles GET /users/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		s.storeError(w, err, "user")
		return
	}
	s.sendJSON(w, http.StatusOK, chat.User{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		LearningProfile: chat.LearningProfile{
			NativeLanguage: user.NativeLanguage,
			TargetLanguage: user.TargetLanguage,
			CEFRLevel:      user.CEFRLevel,
		},
	})
}

func partnerResponse(p *store.Partner) chat.Partner {
	out := chat.Partner{
		ID:           p.ID,
		Name:         p.Name,
		Role:         p.Role,
		Avatar:       p.Avatar,
		Level:        p.Level,
		LastMessage:  p.LastMessage,
		LastActivity: p.LastActivity,
		UnreadCount:  p.UnreadCount,
	}
	out.Normalize()
	return out
}

func messageResponse(m *store.Message) chat.Message {
	return chat.Message{
		ID:              m.ID,
		Text:            m.Text,
		Translation:     m.Translation,
		Sender:          chat.Sender(m.Sender),
		CreatedAt:       m.CreatedAt,
		ShowTranslation: m.Translation != "",
	}
}

// handleListPartners handles GET /users/{uid}/ai-friends.
func (s *Server) handleListPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := s.store.ListPartners(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		s.storeError(w, err, "partners")
		return
	}

	out := make([]chat.Partner, len(partners))
	for i, p := range partners {
		out[i] = partnerResponse(p)
	}
	s.sendJSON(w, http.StatusOK, out)
}

// handleDeletePartner handles DELETE /users/{uid}/ai-friends/{fid}.
func (s *Server) handleDeletePartner(w http.ResponseWriter, r *http.Request) {
	uid, fid := chi.URLParam(r, "uid"), chi.URLParam(r, "fid")
	if err := s.store.DeletePartner(r.Context(), uid, fid); err != nil {
		s.storeError(w, err, "partner")
		return
	}
	s.logger.Info("partner removed", "user_id", uid, "partner_id", fid)
	w.WriteHeader(http.StatusNoContent)
}

// handleMarkRead handles POST /users/{uid}/conversations/{fid}/read.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.MarkRead(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "fid")); err != nil {
		s.storeError(w, err, "partner")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListMessages handles GET /users/{uid}/ai-friends/{fid}/messages?limit=N.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	uid, fid := chi.URLParam(r, "uid"), chi.URLParam(r, "fid")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	if _, err := s.store.GetPartner(r.Context(), uid, fid); err != nil {
		s.storeError(w, err, "partner")
		return
	}
	msgs, err := s.store.ListMessages(r.Context(), fid, limit)
	if err != nil {
		s.storeError(w, err, "messages")
		return
	}

	out := make([]chat.Message, len(msgs))
	for i, m := range msgs {
		out[i] = messageResponse(m)
	}
	s.sendJSON(w, http.StatusOK, out)
}

// handleSendMessage handles POST /users/{uid}/ai-friends/{fid}/messages.
// It stores the user's message, produces the partner's reply and returns it.
// Requests repeating an idempotency key get the first reply back.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	uid, fid := chi.URLParam(r, "uid"), chi.URLParam(r, "fid")

	var req chat.SendRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		s.sendJSONError(w, http.StatusBadRequest, "text is required")
		return
	}

	partner, err := s.store.GetPartner(r.Context(), uid, fid)
	if err != nil {
		s.storeError(w, err, "partner")
		return
	}

	if req.IdempotencyKey == "" {
		reply, err := s.exchange(r, partner, req)
		if err != nil {
			s.storeError(w, err, "message")
			return
		}
		s.sendJSON(w, http.StatusOK, reply)
		return
	}

	key := dedupe.Key(uid+"/"+fid, req.IdempotencyKey)
	if reply, ok := s.replies.Get(key); ok {
		s.metrics.DedupeHit()
		s.sendJSON(w, http.StatusOK, reply)
		return
	}

	v, err, _ := s.inflight.Do(key, func() (any, error) {
		if reply, ok := s.replies.Get(key); ok {
			s.metrics.DedupeHit()
			return reply, nil
		}
		reply, err := s.exchange(r, partner, req)
		if err != nil {
			return nil, err
		}
		s.replies.Put(key, reply)
		return reply, nil
	})
	if err != nil {
		s.storeError(w, err, "message")
		return
	}
	s.sendJSON(w, http.StatusOK, v.(chat.Message))
}

// exchange persists the user's message and the partner's reply.
func (s *Server) exchange(r *http.Request, partner *store.Partner, req chat.SendRequest) (chat.Message, error) {
	native := req.NativeLanguage
	if native == "" {
		native = chat.DefaultNativeLanguage
	}
	now := s.now().UTC()

	userMsg := &store.Message{
		ID:          uuid.New().String(),
		PartnerID:   partner.ID,
		Text:        req.Text,
		Translation: tutor.Translate(req.Text, native),
		Sender:      store.SenderUser,
		CreatedAt:   now,
	}
	if err := s.store.SaveMessage(r.Context(), userMsg); err != nil {
		return chat.Message{}, err
	}
	s.metrics.MessageStored(store.SenderUser)

	text := tutor.Respond(partner.ID, req.Text)
	replyMsg := &store.Message{
		ID:          uuid.New().String(),
		PartnerID:   partner.ID,
		Text:        text,
		Translation: tutor.Translate(text, native),
		Sender:      store.SenderPartner,
		CreatedAt:   now,
	}
	if err := s.store.SaveMessage(r.Context(), replyMsg); err != nil {
		return chat.Message{}, err
	}
	s.metrics.MessageStored(store.SenderPartner)

	s.logger.Debug("message exchanged",
		"partner_id", partner.ID,
		"user_message_id", userMsg.ID,
		"reply_id", replyMsg.ID,
	)
	return messageResponse(replyMsg), nil
}

// handleTranslate handles POST /translate.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req chat.TranslateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" || req.TargetLanguage == "" {
		s.sendJSONError(w, http.StatusBadRequest, "text and target_language are required")
		return
	}
	s.sendJSON(w, http.StatusOK, chat.TranslateResponse{Translation: tutor.Translate(req.Text, req.TargetLanguage)})
}

// handleCorrect handles POST /correct.
func (s *Server) handleCorrect(w http.ResponseWriter, r *http.Request) {
	var req chat.CorrectRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.sendJSONError(w, http.StatusBadRequest, "text is required")
		return
	}
	c := tutor.Correct(req.Text)
	s.sendJSON(w, http.StatusOK, chat.Correction{
		Original:    c.Original,
		Corrected:   c.Corrected,
		Explanation: c.Explanation,
	})
}

// handleFeedback handles POST /feedback.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req chat.FeedbackRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.sendJSONError(w, http.StatusBadRequest, "text is required")
		return
	}
	s.sendJSON(w, http.StatusOK, chat.FeedbackResponse{Feedback: tutor.Feedback(req.Text, req.Context)})
}
