package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lmoreau/profilhub/internal/geo"
	"github.com/lmoreau/profilhub/internal/geocode"
)

// GeofenceGate is the single server-side address gate shared by signup and
// profile update, so the rule cannot drift between the two paths.
type GeofenceGate struct {
	resolver AddressResolver
	fence    geo.Fence
	enforce  bool
	log      *slog.Logger
}

func NewGeofenceGate(resolver AddressResolver, fence geo.Fence, enforce bool, log *slog.Logger) *GeofenceGate {
	return &GeofenceGate{
		resolver: resolver,
		fence:    fence,
		enforce:  enforce,
		log:      log,
	}
}

// Check resolves and classifies an address when enforcement is on. It writes
// the rejection response itself and reports whether the request may proceed.
func (g *GeofenceGate) Check(ctx *gin.Context, cctx context.Context, address string) bool {
	if g == nil || !g.enforce || g.resolver == nil {
		return true
	}

	point, err := g.resolver.Resolve(cctx, address)

	if err != nil {
		if errors.Is(err, geocode.ErrNoMatch) {
			RespondError(ctx, http.StatusBadRequest, "invalid_address", "The address could not be found.", nil)
			return false
		}

		g.log.Error("geocode lookup failed", "err", err)
		RespondInternal(ctx, "Could not validate address")
		return false
	}

	if !g.fence.Allows(point) {
		RespondError(ctx, http.StatusBadRequest, "address_out_of_range", "The address must be within 50 km of Paris.", nil)
		return false
	}

	return true
}
