package notification

import (
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewSinkFromConfig builds the outbound sink for both channels.
// A channel without a configured provider falls back to the log sink.
func NewSinkFromConfig(cfg config.NotificationConfig, logger *zap.Logger) (billing.NotificationSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logSink := NewLogSink(logger.Named("notification"))
	router := NewRouter()

	if cfg.LogOnly {
		logger.Info("notifications are log-only")
		router.Register(billing.ChannelEmail, logSink).Register(billing.ChannelSMS, logSink)
		return router, nil
	}

	if cfg.SMTPHost != "" {
		email, err := NewSMTPSink(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			return nil, err
		}
		router.Register(billing.ChannelEmail, email)
	} else {
		logger.Warn("SMTP not configured, e-mail notifications are logged only")
		router.Register(billing.ChannelEmail, logSink)
	}

	if cfg.SMSGatewayURL != "" {
		sms, err := NewSMSGatewaySink(SMSGatewayConfig{
			URL:    cfg.SMSGatewayURL,
			Token:  cfg.SMSGatewayToken,
			Sender: cfg.SMSSender,
		})
		if err != nil {
			return nil, err
		}
		router.Register(billing.ChannelSMS, sms)
	} else {
		logger.Warn("SMS gateway not configured, SMS notifications are logged only")
		router.Register(billing.ChannelSMS, logSink)
	}

	return NewRateLimitedSink(router, cfg.RateLimit, cfg.RateBurst), nil
}
