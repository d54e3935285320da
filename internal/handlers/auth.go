package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pliu/roomchat/internal/auth"
	"github.com/pliu/roomchat/internal/middleware"
	"github.com/pliu/roomchat/internal/models"
	"github.com/pliu/roomchat/internal/objectid"
	"github.com/pliu/roomchat/internal/store"
)

var validate = validator.New()

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Username   string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Fullname   string `json:"fullname" validate:"max=64"`
	ProfilePic string `json:"profilePic" validate:"omitempty,url"`
}

type LoginResponse struct {
	User  models.Profile `json:"user"`
	Token string         `json:"token"`
}

type AuthHandler struct {
	Store  store.Store
	Tokens *auth.Issuer
	Log    *slog.Logger
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid signup details.")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("hashing password", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user := &models.User{
		ID:         objectid.New(),
		Username:   req.Username,
		Fullname:   req.Fullname,
		ProfilePic: req.ProfilePic,
		Password:   hashedPassword,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeMessage(w, http.StatusConflict, "Username already exists.")
			return
		}
		h.Log.Error("creating user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusCreated, user.Profile())
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := validate.Struct(creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials.")
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), creds.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.Log.Error("loading user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if user == nil || !auth.ComparePassword(user.Password, creds.Password) {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.Log.Error("issuing session token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, LoginResponse{User: user.Profile(), Token: token})
}

func (h *AuthHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, []models.Profile{})
		return
	}

	users, err := h.Store.SearchUsers(r.Context(), query)
	if err != nil {
		h.Log.Error("searching users", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	profiles := make([]models.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	writeJSON(w, http.StatusOK, profiles)
}
