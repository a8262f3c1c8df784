package email

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"

	"github.com/sss135790/quick-clinic/internal/config"
)

type Service interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
	SendPaymentReceipt(ctx context.Context, to string, receipt Receipt) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	from    string
	dialer  dialer
	breaker *gobreaker.CircuitBreaker
}

// NewService returns an SMTP mailer, or a log-only mailer when no host is configured.
func NewService(cfg config.EmailConfig) Service {
	if cfg.Host == "" {
		return NewLogService()
	}
	return newSMTPService(cfg.From, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password))
}

func newSMTPService(from string, d dialer) *smtpService {
	return &smtpService{
		from:   from,
		dialer: d,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "smtp",
			Timeout: time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}
}

func (s *smtpService) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your Quick Clinic verification code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Your verification code is %s. It expires in %d minutes.", code, int(ttl.Minutes())))
	return s.send(ctx, m)
}

func (s *smtpService) SendPaymentReceipt(ctx context.Context, to string, receipt Receipt) error {
	pdf, err := RenderReceipt(receipt)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Payment confirmation")
	m.SetBody("text/plain", fmt.Sprintf(
		"We received your payment of %s. Your receipt is attached.", FormatAmount(receipt.Amount, receipt.Currency)))
	m.Attach(receipt.FileName(), gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))
	return s.send(ctx, m)
}

func (s *smtpService) send(ctx context.Context, m *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.dialer.DialAndSend(m)
	})
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

type logService struct{}

// NewLogService logs outgoing mail instead of sending it. Codes are never logged.
func NewLogService() Service {
	return logService{}
}

func (logService) SendOTP(_ context.Context, to, _ string, ttl time.Duration) error {
	log.Info().Str("to", to).Dur("ttl", ttl).Msg("otp email suppressed: no smtp host configured")
	return nil
}

func (logService) SendPaymentReceipt(_ context.Context, to string, receipt Receipt) error {
	log.Info().Str("to", to).Str("order_id", receipt.OrderID).Msg("receipt email suppressed: no smtp host configured")
	return nil
}
