package http

import (
	"encoding/json"
	"net/http"
	"strings"

	mw "github.com/lorrc/insuredesk-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/insuredesk-backend/internal/auth"
	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  ports.AuthService
	userRepo     ports.UserRepository
	tokenManager *auth.TokenManager
	errorHandler *ErrorHandler
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(
	authService ports.AuthService,
	userRepo ports.UserRepository,
	tokenManager *auth.TokenManager,
	errorHandler *ErrorHandler,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userRepo:     userRepo,
		tokenManager: tokenManager,
		errorHandler: errorHandler,
	}
}

// LoginRequest is the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the registration request body. ContactID links a
// customer account to its CRM contact record and is optional.
type RegisterRequest struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	ContactID string `json:"contactId"`
}

// UserResponse is the public shape of a user account
type UserResponse struct {
	ID       int64       `json:"id"`
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
	IsActive bool        `json:"isActive"`
}

// TokenResponse carries an access token plus the authenticated user
type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.FullName,
		Role:     user.Role,
		IsActive: user.IsActive,
	}
}

// HandleLogin authenticates a user and issues an access token
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid request body"))
		return
	}

	user, err := h.authService.Login(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	token, err := h.tokenManager.GenerateToken(user.Identity())
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
		return
	}

	WriteJSON(w, http.StatusOK, TokenResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// HandleRegister creates a new account
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid request body"))
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), domain.UserRegistrationParams{
		FullName:  strings.TrimSpace(req.FullName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  req.Password,
		Role:      role,
		ContactID: strings.TrimSpace(req.ContactID),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, map[string]UserResponse{"user": toUserResponse(user)})
}

// HandleMe returns the account behind the presented token
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), claims.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]UserResponse{"user": toUserResponse(user)})
}
