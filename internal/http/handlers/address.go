package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lmoreau/profilhub/internal/config"
	"github.com/lmoreau/profilhub/internal/geo"
	"github.com/lmoreau/profilhub/internal/geocode"
)

// AddressHandler exposes the pre-submission address gate so clients can check
// an address without calling the third-party geocoder themselves.
type AddressHandler struct {
	resolver AddressResolver
	fence    geo.Fence
	log      *slog.Logger
}

func NewAddressHandler(resolver AddressResolver, fence geo.Fence, log *slog.Logger) *AddressHandler {
	return &AddressHandler{
		resolver: resolver,
		fence:    fence,
		log:      log,
	}
}

func (h *AddressHandler) CheckAddress(ctx *gin.Context) {
	query := ctx.Query("q")

	if query == "" {
		RespondBadRequest(ctx, "Missing address query", nil)
		return
	}

	cctx, cancel := config.WithTimeout(6 * time.Second)
	defer cancel()

	point, err := h.resolver.Resolve(cctx, query)

	if err != nil {
		if errors.Is(err, geocode.ErrNoMatch) {
			RespondError(ctx, http.StatusBadRequest, "invalid_address", "The address could not be found.", nil)
			return
		}

		h.log.Error("geocode lookup failed", "err", err)
		RespondInternal(ctx, "Could not validate address")
		return
	}

	distance := h.fence.Distance(point)

	ctx.JSON(http.StatusOK, gin.H{
		"valid":          h.fence.Allows(point),
		"distanceMeters": distance,
	})
}
