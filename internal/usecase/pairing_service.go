package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/macrolens/tracker/internal/domain"
	"github.com/macrolens/tracker/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

const (
	// PairingCodeAlphabet excludes the look-alike characters O, 0, I, 1 and L
	PairingCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	// PairingCodeLength is the number of symbols in a pairing code
	PairingCodeLength = 6
	// DefaultPairingCodeTTL is how long an unclaimed code stays valid
	DefaultPairingCodeTTL = 5 * time.Minute

	pairingTokenBytes   = 32
	maxCodeAttempts     = 5
	defaultPairClaimURL = "macrolens://pair?code=%s"
)

// QRGenerator renders text as a PNG QR code
type QRGenerator interface {
	PNG(content string) ([]byte, error)
}

// PairingLimiters are the per-scope admission checks of the pairing flow.
// A nil limiter admits everything.
type PairingLimiters struct {
	Request domain.RateLimiter // keyed by client IP
	Status  domain.RateLimiter // keyed by token hash
	Claim   domain.RateLimiter // keyed by user id
}

// PairingConfig holds configuration for the pairing service
type PairingConfig struct {
	CodeTTL time.Duration
	// ClaimURL is the QR payload; %s is replaced by the code
	ClaimURL string
	// Now overrides the clock in tests; it must return UTC
	Now func() time.Time
}

// PairingTicket is handed to the device that asked to be paired.
// Token is only ever returned here; the store keeps its hash.
type PairingTicket struct {
	Code        string    `json:"code"`
	DisplayCode string    `json:"display_code"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	QRCode      []byte    `json:"qr_code,omitempty"`
}

// PairingService links unauthenticated devices to user accounts through
// short-lived codes and issues device tokens
type PairingService struct {
	codes    domain.PairingRepository
	devices  domain.DeviceTokenRepository
	limiters PairingLimiters
	qr       QRGenerator
	codeTTL  time.Duration
	claimURL string
	now      func() time.Time
	random   io.Reader
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewPairingService creates a new pairing service with dependencies
func NewPairingService(
	codes domain.PairingRepository,
	devices domain.DeviceTokenRepository,
	limiters PairingLimiters,
	qr QRGenerator,
	config PairingConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PairingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	codeTTL := config.CodeTTL
	if codeTTL <= 0 {
		codeTTL = DefaultPairingCodeTTL
	}
	claimURL := config.ClaimURL
	if claimURL == "" {
		claimURL = defaultPairClaimURL
	}
	now := config.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &PairingService{
		codes:    codes,
		devices:  devices,
		limiters: limiters,
		qr:       qr,
		codeTTL:  codeTTL,
		claimURL: claimURL,
		now:      now,
		random:   rand.Reader,
		metrics:  m,
		logger:   logger.Named("pairing"),
	}
}

// Request issues a new pairing code and bearer token for a device
func (s *PairingService) Request(ctx context.Context, ip string, device domain.DeviceMetadata) (*PairingTicket, error) {
	if err := s.admit(ctx, s.limiters.Request, "pairing_request", "pairing:request:"+ip); err != nil {
		return nil, err
	}

	now := s.now()
	if removed, err := s.codes.DeleteExpired(ctx, now); err != nil {
		s.logger.Warn("expired code cleanup failed", zap.Error(err))
	} else if removed > 0 {
		s.logger.Debug("expired codes removed", zap.Int64("count", removed))
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}

	pairing := &domain.PairingCode{
		TokenHash:  hashToken(token),
		DeviceName: strings.TrimSpace(device.Name),
		DeviceType: strings.TrimSpace(device.Type),
		DeviceInfo: strings.TrimSpace(device.Info),
		ExpiresAt:  now.Add(s.codeTTL),
		CreatedAt:  now,
	}

	for attempt := 1; ; attempt++ {
		pairing.Code, err = s.newCode()
		if err != nil {
			return nil, err
		}
		err = s.codes.Create(ctx, pairing)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == maxCodeAttempts {
			return nil, fmt.Errorf("create pairing code: %w", err)
		}
	}

	ticket := &PairingTicket{
		Code:        pairing.Code,
		DisplayCode: FormatDisplayCode(pairing.Code),
		Token:       token,
		ExpiresAt:   pairing.ExpiresAt,
	}
	if s.qr != nil {
		png, err := s.qr.PNG(fmt.Sprintf(s.claimURL, pairing.Code))
		if err != nil {
			s.logger.Warn("qr code rendering failed", zap.Error(err))
		} else {
			ticket.QRCode = png
		}
	}

	s.metrics.IncPairingTransition("requested")
	s.logger.Info("pairing requested",
		zap.String("device_name", pairing.DeviceName),
		zap.String("device_type", pairing.DeviceType),
		zap.Time("expires_at", pairing.ExpiresAt))
	return ticket, nil
}

// Status reports what the polling device should do next. Observing "linked"
// consumes the code, so every later poll sees "expired".
func (s *PairingService) Status(ctx context.Context, token string) (domain.PairingStatus, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	tokenHash := hashToken(token)
	if err := s.admit(ctx, s.limiters.Status, "pairing_status", "pairing:status:"+tokenHash); err != nil {
		return "", err
	}

	pairing, err := s.codes.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PairingExpired, nil
		}
		return "", fmt.Errorf("find pairing code: %w", err)
	}

	switch {
	case pairing.IsClaimed():
		if err := s.codes.DeleteByTokenHash(ctx, tokenHash); err != nil {
			return "", fmt.Errorf("consume pairing code: %w", err)
		}
		s.metrics.IncPairingTransition("linked")
		return domain.PairingLinked, nil
	case pairing.IsExpired(s.now()):
		s.metrics.IncPairingTransition("expired")
		return domain.PairingExpired, nil
	default:
		return domain.PairingPending, nil
	}
}

// Claim binds the device behind rawCode to userID and issues its device token
func (s *PairingService) Claim(ctx context.Context, userID, rawCode string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if err := s.admit(ctx, s.limiters.Claim, "pairing_claim", "pairing:claim:"+userID); err != nil {
		return err
	}

	code, err := NormalizeCode(rawCode)
	if err != nil {
		return err
	}

	now := s.now()
	pairing, err := s.codes.FindOpenByCode(ctx, code, now)
	if err != nil {
		return fmt.Errorf("claim: %w", err)
	}

	device := &domain.DeviceToken{
		ID:           uuid.NewString(),
		UserID:       userID,
		TokenHash:    pairing.TokenHash,
		Name:         pairing.DeviceName,
		DeviceType:   pairing.DeviceType,
		DeviceInfo:   pairing.DeviceInfo,
		LastActiveAt: &now,
		CreatedAt:    now,
	}
	if err := s.devices.Create(ctx, device); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// a concurrent claim already issued this token
			return domain.ErrPairingNotFound
		}
		return fmt.Errorf("create device token: %w", err)
	}

	claimed, err := s.codes.MarkClaimed(ctx, code, userID)
	if err != nil {
		return fmt.Errorf("mark claimed: %w", err)
	}
	if !claimed {
		return domain.ErrPairingNotFound
	}

	s.metrics.IncPairingTransition("claimed")
	s.logger.Info("device paired",
		zap.String("user_id", userID),
		zap.String("device_id", device.ID),
		zap.String("device_name", device.Name))
	return nil
}

// AuthenticateDevice resolves a bearer token to an active device and records the use
func (s *PairingService) AuthenticateDevice(ctx context.Context, token string) (*domain.DeviceToken, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	device, err := s.devices.FindByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("find device token: %w", err)
	}

	now := s.now()
	if device.Revoked || device.IsExpired(now) {
		return nil, domain.ErrUnauthorized
	}

	if err := s.devices.Touch(ctx, device.ID, now); err != nil {
		s.logger.Warn("device touch failed", zap.String("device_id", device.ID), zap.Error(err))
	} else {
		device.LastActiveAt = &now
	}
	return device, nil
}

// ListDevices removes stale never-activated tokens, then lists the user's devices
func (s *PairingService) ListDevices(ctx context.Context, userID string) ([]*domain.DeviceToken, error) {
	if _, err := s.devices.DeleteStalePending(ctx, userID, s.now()); err != nil {
		s.logger.Warn("stale device cleanup failed", zap.String("user_id", userID), zap.Error(err))
	}

	devices, err := s.devices.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// RevokeDevice disables one of the user's device tokens
func (s *PairingService) RevokeDevice(ctx context.Context, userID, deviceID string) error {
	if err := s.devices.Revoke(ctx, deviceID, userID); err != nil {
		return fmt.Errorf("revoke device: %w", err)
	}
	s.metrics.IncPairingTransition("revoked")
	return nil
}

// admit runs one limiter check. A failing limiter admits the request.
func (s *PairingService) admit(ctx context.Context, limiter domain.RateLimiter, scope, key string) error {
	if limiter == nil {
		return nil
	}
	result, err := limiter.Check(ctx, key)
	if err != nil {
		s.logger.Warn("rate limit check failed", zap.String("scope", scope), zap.Error(err))
		return nil
	}
	if !result.Allowed {
		s.metrics.IncRateLimitRejection(scope)
		return &domain.RateLimitedError{Scope: scope, ResetAt: result.ResetAt}
	}
	return nil
}

func (s *PairingService) newToken() (string, error) {
	buf := make([]byte, pairingTokenBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// newCode draws PairingCodeLength symbols uniformly by rejecting bytes past
// the largest multiple of the alphabet size
func (s *PairingService) newCode() (string, error) {
	const n = len(PairingCodeAlphabet)
	const limit = 256 - 256%n

	code := make([]byte, 0, PairingCodeLength)
	buf := make([]byte, 16)
	for len(code) < PairingCodeLength {
		if _, err := io.ReadFull(s.random, buf); err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, PairingCodeAlphabet[int(b)%n])
			if len(code) == PairingCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

// NormalizeCode uppercases user input and drops everything outside the alphabet.
// The result must be exactly PairingCodeLength symbols.
func NormalizeCode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if strings.ContainsRune(PairingCodeAlphabet, r) {
			b.WriteRune(r)
		}
	}
	if b.Len() != PairingCodeLength {
		return "", domain.ErrInvalidPairingCode
	}
	return b.String(), nil
}

// FormatDisplayCode renders "ABC234" as "ABC 234"
func FormatDisplayCode(code string) string {
	if len(code) != PairingCodeLength {
		return code
	}
	return code[:3] + " " + code[3:]
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
