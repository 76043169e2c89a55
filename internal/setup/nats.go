package setup

import (
	"fmt"
	"time"

	"github.com/3Eeeecho/go-divelog/internal/config"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// InitNATS connects to NATS. It returns (nil, nil) when no URL is
// configured, which disables share notifications.
func InitNATS(cfg *config.NATSConfig) (*nats.Conn, error) {
	if cfg.URL == "" {
		logger.Info("NATS not configured, share notifications disabled")
		return nil, nil
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("go-divelog"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logger.Info("Connected to NATS", zap.String("url", cfg.URL))
	return nc, nil
}

func CloseNATS(nc *nats.Conn) {
	if nc == nil {
		return
	}
	if err := nc.Drain(); err != nil {
		logger.Error("Error draining NATS connection", zap.Error(err))
		nc.Close()
		return
	}
	logger.Info("NATS connection closed")
}
