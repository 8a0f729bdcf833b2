package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// Mongo connection
	MongoURI string
	MongoDB  string

	// Token signing
	JWTSecret     string
	TokenTTLHours int

	// Outbound geocoding service
	GeocodeEndpoint string

	// Geofence rule: addresses must resolve within RadiusMeters of the centre.
	GeofenceEnforced bool
	GeofenceLat      float64
	GeofenceLon      float64
	GeofenceRadiusM  float64

	// Optional redis cache for geocode lookups ("" disables it)
	RedisAddr string

	CORSOrigins []string

	OTLPEndpoint string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		MongoURI: getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:  getEnv("MONGODB_DB", "profilhub"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenTTLHours: getEnvInt("TOKEN_TTL_HOURS", 1),

		GeocodeEndpoint: getEnv("GEOCODE_ENDPOINT", "https://api-adresse.data.gouv.fr/search/"),

		GeofenceEnforced: getEnvBool("GEOFENCE_ENFORCED", true),
		GeofenceLat:      getEnvFloat("GEOFENCE_LAT", 48.8566),
		GeofenceLon:      getEnvFloat("GEOFENCE_LON", 2.3522),
		GeofenceRadiusM:  getEnvFloat("GEOFENCE_RADIUS_M", 50000),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
	}
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.ParseFloat(v, 64)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return b
	}
	return fallback
}
