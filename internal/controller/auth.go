package controller

import (
	"net/http"

	"todoapp/internal/middleware"
	"todoapp/internal/models"
	"todoapp/internal/service"
	"todoapp/internal/token"

	"github.com/gin-gonic/gin"
)

type authResponse struct {
	Message string             `json:"message"`
	User    models.UserProfile `json:"user"`
	token.Pair
}

type AuthHandler struct {
	auth *service.Auth
}

func NewAuthHandler(auth *service.Auth) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register (public): creates a password account, returns 201 with tokens.
func (h *AuthHandler) Register(c *gin.Context) {
	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := bindJSON(c, &body); err != nil {
		respondError(c, err, "Registration failed")
		return
	}
	s, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     body.Email,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		respondError(c, err, "Registration failed")
		return
	}
	c.JSON(http.StatusCreated, authResponse{Message: "User registered successfully", User: s.User, Pair: s.Tokens})
}

// Login (public): email + password.
func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &body); err != nil {
		respondError(c, err, "Login failed")
		return
	}
	s, err := h.auth.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, authResponse{Message: "Login successful", User: s.User, Pair: s.Tokens})
}

// Google (public): exchanges a Google ID token for a session.
func (h *AuthHandler) Google(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
	}
	if err := bindJSON(c, &body); err != nil {
		respondError(c, err, "Google login failed")
		return
	}
	s, err := h.auth.LoginWithGoogle(c.Request.Context(), body.Token)
	if err != nil {
		respondError(c, err, "Google login failed")
		return
	}
	c.JSON(http.StatusOK, authResponse{Message: "Google login successful", User: s.User, Pair: s.Tokens})
}

// Refresh (refresh token): issues a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	id, _ := middleware.SubjectID(c)
	s, err := h.auth.Refresh(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Token refresh failed")
		return
	}
	c.JSON(http.StatusOK, authResponse{Message: "Token refreshed successfully", User: s.User, Pair: s.Tokens})
}

// Me (access token + user).
func (h *AuthHandler) Me(c *gin.Context) {
	p, err := h.auth.Profile(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": p})
}

// Logout is an acknowledgement only; the client discards its tokens.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
