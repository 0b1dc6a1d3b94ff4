package sms

import (
	"context"
	"fmt"
	"time"

	"bakehouse/pkg/logger"
)

// LogProvider writes messages to the log instead of sending them. Only meant
// for local development.
type LogProvider struct {
	logger *logger.Logger
}

func NewLogProvider(log *logger.Logger) *LogProvider {
	return &LogProvider{logger: log.WithField("component", "sms_log")}
}

func (p *LogProvider) SendSMS(_ context.Context, request *SMSRequest) (*SMSResponse, error) {
	p.logger.WithFields(map[string]interface{}{
		"to":   request.To,
		"type": request.Type,
		"body": request.Message,
	}).Info("SMS not sent, logging instead")

	return &SMSResponse{
		MessageID: fmt.Sprintf("log-%d", time.Now().UnixNano()),
		Status:    "logged",
	}, nil
}
