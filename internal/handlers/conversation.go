package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pliu/roomchat/internal/conversation"
	"github.com/pliu/roomchat/internal/models"
	"github.com/pliu/roomchat/internal/objectid"
)

type ConversationHandler struct {
	Service *conversation.Service
	Log     *slog.Logger
}

type CreateConversationResponse struct {
	ConversationID objectid.ID `json:"conversationId"`
	Message        string      `json:"message"`
	SenderID       objectid.ID `json:"senderId"`
	ReceiverID     objectid.ID `json:"receiverId"`
	Room           string      `json:"room"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

// CreateConversation opens a conversation with the user named in the path.
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.Log, err, "Invalid receiver ID.")
		return
	}

	writeJSON(w, http.StatusOK, CreateConversationResponse{
		ConversationID: created.ConversationID,
		Message:        "Conversation created successfully.",
		SenderID:       created.SenderID,
		ReceiverID:     created.ReceiverID,
		Room:           created.Room,
	})
}

func (h *ConversationHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	messages, err := h.Service.Messages(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.Log, err, "Invalid conversation ID.")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	message, err := h.Service.SendMessage(r.Context(), userID, mux.Vars(r)["id"], req.Message)
	if err != nil {
		writeError(w, r, h.Log, err, "Invalid conversation ID or empty message.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": message})
}

func (h *ConversationHandler) GetContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	contacts, err := h.Service.Contacts(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.Log, err, "Invalid request.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	view, err := h.Service.Conversation(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.Log, err, "Invalid conversation ID.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"conversation": view})
}
