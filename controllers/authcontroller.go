package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/twinj/uuid"

	"github.com/healthq/healthq/auth"
	"github.com/healthq/healthq/bus"
	"github.com/healthq/healthq/db"
	"github.com/healthq/healthq/logger"
	"github.com/healthq/healthq/mailer"
	"github.com/healthq/healthq/models"
)

type AuthController struct {
	Store  db.Store
	Tokens *auth.Tokens
	Bus    bus.Publisher
	Mailer *mailer.Mailer
	Log    *logger.Logger
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
}

func (aController *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	req := registerRequest{}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, models.Validation("All fields are required"))
		return
	}
	if err := auth.ValidateEmail(req.Email); err != nil {
		writeError(w, err)
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		writeError(w, err)
		return
	}
	if err := auth.ValidateName(req.Name); err != nil {
		writeError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, models.Internal(err))
		return
	}

	user := &models.User{
		ID:           uuid.NewV4().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		DateCreated:  time.Now().UTC(),
	}

	if err := aController.Store.CreateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}

	token, err := aController.Tokens.Issue(user)
	if err != nil {
		writeError(w, models.Internal(err))
		return
	}

	aController.Bus.Publish(bus.SubjectUserRegistered, map[string]any{
		"user_id":   user.ID,
		"email":     user.Email,
		"timestamp": user.DateCreated,
	})
	aController.Mailer.SendWelcome(user.Email, user.Name)

	writeJSON(w, http.StatusCreated, authResponse{
		Message: "Account created successfully!",
		Token:   token,
		UserID:  user.ID,
		Name:    user.Name,
	})
}

func (aController *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	req := loginRequest{}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, models.Validation("Email and password are required"))
		return
	}

	user, err := aController.Store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		// Unknown email and wrong password must be indistinguishable.
		if models.KindOf(err) == models.KindNotFound {
			writeError(w, models.Auth("Invalid email or password"))
			return
		}
		writeError(w, err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, models.Auth("Invalid email or password"))
		return
	}

	token, err := aController.Tokens.Issue(user)
	if err != nil {
		writeError(w, models.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful!",
		Token:   token,
		UserID:  user.ID,
		Name:    user.Name,
	})
}
