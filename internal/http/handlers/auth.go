package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lmoreau/profilhub/internal/auth"
	"github.com/lmoreau/profilhub/internal/config"
	"github.com/lmoreau/profilhub/internal/domain/user"
	"github.com/lmoreau/profilhub/internal/geo"
	"github.com/lmoreau/profilhub/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, params user.NewUserParams) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, id string, params user.UpdateParams) (user.User, error)
}

// AddressResolver turns a free-text address into a coordinate.
type AddressResolver interface {
	Resolve(ctx context.Context, address string) (geo.Point, error)
}

type AuthHandler struct {
	users UserStore
	jwt   *auth.Manager
	gate  *GeofenceGate
	log   *slog.Logger
}

func NewAuthHandler(users UserStore, jwtManager *auth.Manager, gate *GeofenceGate, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwtManager,
		gate:  gate,
		log:   log,
	}
}

type SignUpRequest struct {
	LastName    string `json:"lastName" binding:"required"`
	FirstName   string `json:"firstName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	Address     string `json:"address" binding:"required"`
	BirthDate   string `json:"birthDate" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	birthDate, err := user.ParseBirthDate(req.BirthDate)

	if err != nil {
		RespondError(ctx, http.StatusBadRequest, "invalid_date", "Invalid date format. Please use DD/MM/YYYY.", nil)
		return
	}

	cctx, cancel := config.WithTimeout(8 * time.Second)

	defer cancel()

	if !h.gate.Check(ctx, cctx, req.Address) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.log.Error("password hash failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	_, err = h.users.Create(cctx, user.NewUserParams{
		LastName:     req.LastName,
		FirstName:    req.FirstName,
		Email:        req.Email,
		PasswordHash: hash,
		Address:      req.Address,
		BirthDate:    birthDate,
		PhoneNumber:  req.PhoneNumber,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "User already exists.")
			return
		}

		h.log.Error("user create failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	// no sensitive data is echoed back
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully!",
	})
}

func (h *AuthHandler) SignIn(ctx *gin.Context) {
	var req SignInRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the store lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// same response as a password mismatch: no account enumeration
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		h.log.Error("user lookup failed", "err", err)
		RespondInternal(ctx, "Could not sign in")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.jwt.GenerateToken(foundUser.ID, foundUser.Email)

	if err != nil {
		h.log.Error("token signing failed", "err", err)
		RespondInternal(ctx, "Could not generate token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful!",
		"token":   token,
	})
}
