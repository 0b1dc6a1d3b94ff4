package sms

import (
	"context"
	"fmt"
)

const (
	TypeOTP           = "otp"
	TypeTransactional = "transactional"
	TypePromotional   = "promotional"
)

type SMSProvider interface {
	SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error)
}

type SMSRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
	Type    string `json:"type"` // transactional, promotional, otp
}

type SMSResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Settings selects and configures a provider.
type Settings struct {
	Provider         string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	AWSRegion        string
	SenderID         string
}

// NewProvider builds the provider named by settings.Provider.
func NewProvider(settings Settings) (SMSProvider, error) {
	switch settings.Provider {
	case "twilio":
		if settings.TwilioAccountSID == "" || settings.TwilioAuthToken == "" {
			return nil, fmt.Errorf("twilio credentials are not configured")
		}
		return NewTwilioProvider(settings.TwilioAccountSID, settings.TwilioAuthToken, settings.TwilioFromNumber), nil
	case "sns", "aws":
		return NewAWSSNSProvider(settings.AWSRegion, settings.SenderID)
	default:
		return nil, fmt.Errorf("unknown sms provider %q", settings.Provider)
	}
}
