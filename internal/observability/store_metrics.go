package observability

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

func (p *Prom) ObserveStore(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil {
		status = "error"
		p.StoreErrsTotal.WithLabelValues(op, classifyStoreErr(err)).Inc()
	}
	p.StoreOpDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyStoreErr(err error) string {
	if mongo.IsDuplicateKeyError(err) {
		return "duplicate_key"
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return "no_documents"
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return "command_" + cmdErr.Name
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection") || strings.Contains(msg, "server selection"):
		return "connection"
	default:
		return "unknown"
	}
}
