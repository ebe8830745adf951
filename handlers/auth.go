package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/wings-of-memory/memorialbackend/config"
	"github.com/wings-of-memory/memorialbackend/models"
	"github.com/wings-of-memory/memorialbackend/repository"
)

type AuthHandler struct {
	UserRepo repository.UserRepositoryInterface
	Cfg      *config.Config
	validate *validator.Validate
}

func NewAuthHandler(userRepo repository.UserRepositoryInterface, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		UserRepo: userRepo,
		Cfg:      cfg,
		validate: validator.New(),
	}
}

type RegisterPayload struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// issueToken signs a 7-day HS256 token carrying the user's id and role.
func (h *AuthHandler) issueToken(user *models.User) (string, error) {
	expiry := time.Now().Add(time.Duration(h.Cfg.JWTExpirationDays) * 24 * time.Hour)
	claims := &AuthClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "memorialbackend",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.Cfg.JWTSecret))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	if _, err := h.UserRepo.GetByEmail(payload.Email); err == nil {
		writeError(w, http.StatusBadRequest, "User already exists", "")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Register: email lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to register user", "")
		return
	}

	user := &models.User{
		Name:  payload.Name,
		Email: payload.Email,
	}
	if err := user.SetPassword(payload.Password); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to register user", "")
		return
	}
	if err := h.UserRepo.Create(user); err != nil {
		log.Printf("Register: create failed for %s: %v", payload.Email, err)
		writeError(w, http.StatusInternalServerError, "Failed to register user", "")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: *user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	user, err := h.UserRepo.GetByEmail(payload.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}
	if !user.CheckPassword(payload.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: *user})
}

// CurrentUser returns the authenticated user. Protected by AuthMiddleware.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from context", "")
		return
	}

	user, err := h.UserRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "User not found", "")
			return
		}
		log.Printf("CurrentUser: lookup failed for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load user", "")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
