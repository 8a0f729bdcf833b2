package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lmoreau/profilhub/internal/config"
	"github.com/lmoreau/profilhub/internal/domain/user"
	"github.com/lmoreau/profilhub/internal/http/middlewares"
)

type ProfileHandler struct {
	users UserStore
	gate  *GeofenceGate
	log   *slog.Logger
}

func NewProfileHandler(users UserStore, gate *GeofenceGate, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		users: users,
		gate:  gate,
		log:   log,
	}
}

// UpdateProfileRequest is a partial payload: nil fields stay untouched.
// There is deliberately no email or password field; sending one is ignored.
type UpdateProfileRequest struct {
	LastName    *string `json:"lastName" binding:"omitempty,min=1"`
	FirstName   *string `json:"firstName" binding:"omitempty,min=1"`
	Address     *string `json:"address" binding:"omitempty,min=1"`
	BirthDate   *string `json:"birthDate" binding:"omitempty"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,min=1"`
}

func (h *ProfileHandler) GetProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// valid token whose subject is gone: anomalous, reported distinctly
			email, _ := middlewares.EmailFromContext(ctx)
			h.log.Warn("token subject missing from store", "userId", userID, "email", email)
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.Error("user fetch failed", "err", err)
		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	// user.User never serializes the password hash
	ctx.JSON(http.StatusOK, u)
}

func (h *ProfileHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	params := user.UpdateParams{
		LastName:    req.LastName,
		FirstName:   req.FirstName,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
	}

	if req.BirthDate != nil {
		birthDate, err := user.ParseBirthDate(*req.BirthDate)

		if err != nil {
			RespondError(ctx, http.StatusBadRequest, "invalid_date", "Invalid date format. Please use DD/MM/YYYY.", nil)
			return
		}

		params.BirthDate = &birthDate
	}

	cctx, cancel := config.WithTimeout(8 * time.Second)
	defer cancel()

	if req.Address != nil {
		if !h.gate.Check(ctx, cctx, *req.Address) {
			return
		}
	}

	u, err := h.users.Update(cctx, userID, params)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.Error("user update failed", "err", err)
		RespondInternal(ctx, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
