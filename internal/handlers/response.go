package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pliu/roomchat/internal/conversation"
	"github.com/pliu/roomchat/internal/middleware"
	"github.com/pliu/roomchat/internal/objectid"
)

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeError maps service errors onto status codes. invalidMessage is
// the client-facing text for ErrInvalidArgument. Anything unexpected is
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, invalidMessage string) {
	switch {
	case errors.Is(err, conversation.ErrInvalidArgument):
		writeMessage(w, http.StatusBadRequest, invalidMessage)
	case errors.Is(err, conversation.ErrAlreadyExists):
		writeMessage(w, http.StatusBadRequest, "Conversation already exists.")
	case errors.Is(err, conversation.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "Forbidden. You are not a member of this conversation.")
	default:
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// currentUser returns the identity placed in the context by the auth
// middleware, answering 401 when it is absent.
func currentUser(w http.ResponseWriter, r *http.Request) (objectid.ID, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}
