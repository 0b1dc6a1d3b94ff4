package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"bakehouse/internal/config"
	"bakehouse/internal/models"
	"bakehouse/internal/repositories/interfaces"
	"bakehouse/internal/utils"
	"bakehouse/pkg/cache"
	"bakehouse/pkg/logger"
	"bakehouse/pkg/sms"
)

const maxOTPAttempts = 5

type VerificationService interface {
	RequestCode(ctx context.Context, phone string) (*OTPChallenge, error)
	VerifyCode(ctx context.Context, request *models.OTPVerifyRequest) (*models.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
}

type OTPChallenge struct {
	MaskedPhone string `json:"masked_phone"`
	ExpiresIn   int64  `json:"expires_in"`
	Length      int    `json:"length"`
}

type verificationService struct {
	customerRepo interfaces.CustomerRepository
	cache        cache.Cache
	sms          sms.SMSProvider
	tokens       *utils.TokenIssuer
	security     *config.SecurityConfig
	adminPhones  map[string]bool
	logger       *logger.Logger
	now          func() time.Time
}

func NewVerificationService(
	customerRepo interfaces.CustomerRepository,
	c cache.Cache,
	smsProvider sms.SMSProvider,
	tokens *utils.TokenIssuer,
	security *config.SecurityConfig,
	log *logger.Logger,
) VerificationService {
	admins := make(map[string]bool, len(security.AdminPhones))
	for _, p := range security.AdminPhones {
		if normalized, err := utils.NormalizePhone(p, utils.DefaultCountryCode); err == nil {
			admins[normalized] = true
		}
	}

	return &verificationService{
		customerRepo: customerRepo,
		cache:        c,
		sms:          smsProvider,
		tokens:       tokens,
		security:     security,
		adminPhones:  admins,
		logger:       log.WithField("service", "verification"),
		now:          time.Now,
	}
}

func (s *verificationService) RequestCode(ctx context.Context, phone string) (*OTPChallenge, error) {
	normalized, err := utils.NormalizePhone(phone, utils.DefaultCountryCode)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	count, err := s.cache.IncrementWithExpiry(ctx, utils.CacheRateLimitPrefix+normalized, s.security.OTPExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to check otp rate limit: %w", err)
	}
	if count > int64(s.security.OTPMaxRequests) {
		s.logger.LogSecurityEvent("otp_rate_limited", "low", map[string]interface{}{
			"phone": utils.MaskPhone(normalized),
		})
		return nil, ErrTooManyRequests
	}

	code := utils.GenerateOTP(s.security.OTPLength)
	otpKey := utils.CacheOTPPrefix + normalized
	if err := s.cache.Set(ctx, otpKey, code, s.security.OTPExpiry); err != nil {
		return nil, fmt.Errorf("failed to store otp: %w", err)
	}
	s.cache.Delete(ctx, attemptsKey(normalized))

	message := fmt.Sprintf("Your Bakehouse code is %s. It expires in %d minutes.", code, int(s.security.OTPExpiry.Minutes()))
	if _, err := s.sms.SendSMS(ctx, &sms.SMSRequest{To: normalized, Message: message, Type: sms.TypeOTP}); err != nil {
		s.cache.Delete(ctx, otpKey)
		s.logger.WithError(err).WithField("phone", utils.MaskPhone(normalized)).Error("Failed to send OTP SMS")
		return nil, fmt.Errorf("failed to send otp: %w", err)
	}

	return &OTPChallenge{
		MaskedPhone: utils.MaskPhone(normalized),
		ExpiresIn:   int64(s.security.OTPExpiry.Seconds()),
		Length:      len(code),
	}, nil
}

func attemptsKey(phone string) string {
	return utils.CacheOTPPrefix + "attempts:" + phone
}

func (s *verificationService) VerifyCode(ctx context.Context, request *models.OTPVerifyRequest) (*models.AuthResponse, error) {
	phone, err := utils.NormalizePhone(request.Phone, utils.DefaultCountryCode)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	otpKey := utils.CacheOTPPrefix + phone
	var stored string
	if err := s.cache.Get(ctx, otpKey, &stored); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrInvalidOTP
		}
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(request.Code)) != 1 {
		attempts, err := s.cache.IncrementWithExpiry(ctx, attemptsKey(phone), s.security.OTPExpiry)
		if err == nil && attempts >= maxOTPAttempts {
			s.cache.Delete(ctx, otpKey, attemptsKey(phone))
			s.logger.LogSecurityEvent("otp_locked", "medium", map[string]interface{}{
				"phone": utils.MaskPhone(phone),
			})
		}
		return nil, ErrInvalidOTP
	}
	s.cache.Delete(ctx, otpKey, attemptsKey(phone))

	customer, err := s.upsertCustomer(ctx, phone, request.Name)
	if err != nil {
		return nil, err
	}
	return s.issue(customer)
}

func (s *verificationService) upsertCustomer(ctx context.Context, phone, name string) (*models.Customer, error) {
	now := s.now()
	customer, err := s.customerRepo.GetByPhone(ctx, phone)
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		customer = &models.Customer{
			Phone:           phone,
			Name:            name,
			IsAdmin:         s.adminPhones[phone],
			PhoneVerifiedAt: &now,
			LastLoginAt:     &now,
		}
		if err := s.customerRepo.Create(ctx, customer); err != nil {
			return nil, err
		}
		s.logger.WithCustomerID(customer.ID).Info("Customer registered")
		return customer, nil
	case err != nil:
		return nil, err
	}

	if s.adminPhones[phone] && !customer.IsAdmin {
		customer.IsAdmin = true
		if err := s.customerRepo.Update(ctx, customer); err != nil {
			return nil, err
		}
	}
	if err := s.customerRepo.RecordLogin(ctx, customer.ID, now); err != nil {
		return nil, err
	}
	customer.LastLoginAt = &now
	return customer, nil
}

func (s *verificationService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	customer, err := s.customerRepo.GetByID(ctx, claims.CustomerID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return s.issue(customer)
}

func (s *verificationService) issue(customer *models.Customer) (*models.AuthResponse, error) {
	pair, err := s.tokens.GenerateTokenPair(customer.ID, customer.Phone, customer.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &models.AuthResponse{Customer: customer, Tokens: pair}, nil
}
