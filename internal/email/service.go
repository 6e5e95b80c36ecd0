package email

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"

	"github.com/nishant946/masset/internal/logger"
	"github.com/nishant946/masset/internal/metrics"
)

const (
	queueKey   = "emails"
	failedKey  = "emails:failed"
	maxTries   = 3
	popTimeout = 2 * time.Second
)

type Job struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Kind    string    `json:"kind"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Config struct {
	From      string
	FromName  string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	RedisAddr string
}

// Service queues outgoing mail in redis and delivers it from a worker loop.
type Service struct {
	redis      *redis.Client
	from       string
	fromName   string
	dialer     *gomail.Dialer
	retryDelay time.Duration
	deliver    func(Job) error
}

func New(cfg Config) *Service {
	return newService(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg)
}

func newService(rdb *redis.Client, cfg Config) *Service {
	s := &Service{
		redis:      rdb,
		from:       cfg.From,
		fromName:   cfg.FromName,
		dialer:     gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		retryDelay: 5 * time.Second,
	}
	s.deliver = s.sendNow
	return s
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, Job{To: to, Name: name, Subject: subject, Body: body, Kind: "generic"})
}

func (s *Service) enqueue(ctx context.Context, job Job) error {
	job.Created = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		logger.Error("Failed to marshal email job", "error", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		metrics.RecordEmail(job.Kind, "queue_failed")
		logger.Error("Failed to queue email", "to", job.To, "error", err)
		return err
	}

	metrics.RecordEmail(job.Kind, "queued")
	logger.Info("Email queued", "subject", job.Subject, "to", job.To)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

// processNext handles at most one job. Failed jobs are requeued until
// maxTries, then parked on the failed list.
func (s *Service) processNext(ctx context.Context) bool {
	result, err := s.redis.BRPop(ctx, popTimeout, queueKey).Result()
	if err != nil {
		return false
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("Bad email data", "error", err)
		return false
	}

	job.Tries++
	logger.Info("Sending email", "to", job.To, "attempt", job.Tries)
	if err := s.deliver(job); err != nil {
		logger.Error("Failed to send email", "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			sleepCtx(ctx, s.retryDelay)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, string(data))
			logger.Info("Retrying email", "to", job.To, "next_attempt", job.Tries+1)
		} else {
			metrics.RecordEmail(job.Kind, "failed")
			s.saveFailed(job, err)
		}
		return false
	}

	metrics.RecordEmail(job.Kind, "sent")
	logger.Info("Email sent", "to", job.To)
	return true
}

func (s *Service) sendNow(job Job) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetAddressHeader("To", job.To, job.Name)
	m.SetHeader("Subject", job.Subject)
	m.SetBody("text/plain", job.Body)

	return s.dialer.DialAndSend(m)
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, string(data))
	logger.Error("Email moved to failed queue", "to", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

func (s *Service) Close() error {
	return s.redis.Close()
}

// SendPurchaseReceipt queues the buyer's receipt. amount is in minor units.
func (s *Service) SendPurchaseReceipt(ctx context.Context, to, name, assetTitle string, amount int64, currency string) error {
	subject := "Your purchase: " + assetTitle
	body := fmt.Sprintf(`Hi %s,

Thanks for your purchase!

Asset: %s
Amount: %s %s
Date: %s

You can download it any time from your dashboard.

- %s`, name, assetTitle, decimal.New(amount, -2).StringFixed(2), currency, time.Now().Format("Jan 2, 2006"), s.fromName)

	return s.enqueue(ctx, Job{To: to, Name: name, Subject: subject, Body: body, Kind: "purchase_receipt"})
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
