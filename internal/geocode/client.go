package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lmoreau/profilhub/internal/geo"
	"github.com/lmoreau/profilhub/internal/observability"
)

// ErrNoMatch means the service returned zero features for the query.
var ErrNoMatch = errors.New("address did not resolve to a location")

// Cache is a look-aside store for resolved coordinates. A nil Cache is valid.
type Cache interface {
	Get(ctx context.Context, address string) (geo.Point, bool, error)
	Set(ctx context.Context, address string, p geo.Point) error
}

type Client struct {
	endpoint string
	httpc    *http.Client
	cache    Cache
	prom     *observability.Prom
}

// New builds a client for a feature-collection geocoding endpoint queried as
// GET <endpoint>?q=<address>&limit=1. cache and prom may be nil.
func New(endpoint string, cache Cache, prom *observability.Prom) *Client {
	return &Client{
		endpoint: endpoint,
		httpc: &http.Client{
			Timeout: 5 * time.Second,
		},
		cache: cache,
		prom:  prom,
	}
}

// geoJSON mirrors the subset of the response we read:
// {"features":[{"geometry":{"coordinates":[lon,lat]}}]}
type geoJSON struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Resolve turns a free-text address into a coordinate. One outbound call, no
// retries; a failed call fails the enclosing request.
func (c *Client) Resolve(ctx context.Context, address string) (geo.Point, error) {
	if c.cache != nil {
		p, ok, err := c.cache.Get(ctx, address)

		switch {
		case err != nil:
			// cache trouble must never fail a lookup
			c.countCache("error")
		case ok:
			c.countCache("hit")
			return p, nil
		default:
			c.countCache("miss")
		}
	}

	start := time.Now()
	p, err := c.fetch(ctx, address)
	c.observeLookup(start, err)

	if err != nil {
		return geo.Point{}, err
	}

	if c.cache != nil {
		if cerr := c.cache.Set(ctx, address, p); cerr != nil {
			c.countCache("error")
		}
	}

	return p, nil
}

func (c *Client) fetch(ctx context.Context, address string) (geo.Point, error) {
	u := c.endpoint + "?q=" + url.QueryEscape(address) + "&limit=1"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)

	if err != nil {
		return geo.Point{}, err
	}

	resp, err := c.httpc.Do(req)

	if err != nil {
		return geo.Point{}, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("geocode service returned status %d", resp.StatusCode)
	}

	var body geoJSON

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return geo.Point{}, err
	}

	if len(body.Features) == 0 {
		return geo.Point{}, ErrNoMatch
	}

	coords := body.Features[0].Geometry.Coordinates

	if len(coords) < 2 {
		return geo.Point{}, fmt.Errorf("geocode response has malformed coordinates")
	}

	// GeoJSON order is [lon, lat]
	return geo.Point{Lat: coords[1], Lon: coords[0]}, nil
}

func (c *Client) countCache(outcome string) {
	if c.prom != nil {
		c.prom.GeocodeCache.WithLabelValues(outcome).Inc()
	}
}

func (c *Client) observeLookup(start time.Time, err error) {
	if c.prom == nil {
		return
	}

	result := "match"

	switch {
	case errors.Is(err, ErrNoMatch):
		result = "no_match"
	case err != nil:
		result = "error"
	}

	c.prom.GeocodeDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
