package dashboard

import (
	"context"
	"sync"
	"time"

	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/models"
)

// Notifier receives command and load outcomes. Implementations must not
// block the caller for long and never fail the operation that notified.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

const defaultInboxSize = 20

// Inbox is a bounded in-memory queue drained into snapshots. The oldest
// entries are dropped when full.
type Inbox struct {
	mu      sync.Mutex
	size    int
	pending []models.Notification
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Inbox{size: size}
}

func (i *Inbox) Notify(_ context.Context, n models.Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending = append(i.pending, n)
	if over := len(i.pending) - i.size; over > 0 {
		i.pending = append([]models.Notification(nil), i.pending[over:]...)
	}
}

// Drain returns and clears the queued notifications, oldest first.
func (i *Inbox) Drain() []models.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.pending
	i.pending = nil
	if out == nil {
		out = []models.Notification{}
	}
	return out
}

type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (l *LogNotifier) Notify(_ context.Context, n models.Notification) {
	fields := map[string]interface{}{
		"level":         string(n.Level),
		"operation":     n.Operation,
		"applicationId": n.ApplicationID,
	}
	if n.Level == models.NotificationError {
		l.logger.Warn(n.Message, fields)
		return
	}
	l.logger.Info(n.Message, fields)
}

// Publisher is satisfied by *aws.SNSClient.
type Publisher interface {
	PublishJSON(ctx context.Context, subject string, payload interface{}, attributes map[string]string) (string, error)
}

// snsPublishTimeout bounds one publish, detached from the caller's context.
const snsPublishTimeout = 5 * time.Second

// SNSNotifier publishes command outcomes to a topic in the background, so a
// slow topic never holds up the view that notified. Load failures and other
// notifications without an application id are not published.
type SNSNotifier struct {
	publisher Publisher
	logger    logger.Logger
	timeout   time.Duration
	inflight  sync.WaitGroup
}

func NewSNSNotifier(publisher Publisher, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{publisher: publisher, logger: log, timeout: snsPublishTimeout}
}

func (s *SNSNotifier) Notify(ctx context.Context, n models.Notification) {
	if n.ApplicationID == "" {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		s.publish(pubCtx, n)
	}()
}

func (s *SNSNotifier) publish(ctx context.Context, n models.Notification) {
	_, err := s.publisher.PublishJSON(ctx, n.Message, n, map[string]string{
		"level":         string(n.Level),
		"operation":     n.Operation,
		"applicationId": n.ApplicationID,
	})
	if err != nil {
		s.logger.Warn("Failed to publish dashboard notification", map[string]interface{}{
			"operation":     n.Operation,
			"applicationId": n.ApplicationID,
			"error":         err,
		})
	}
}

// Wait blocks until every publish started so far has finished.
func (s *SNSNotifier) Wait() {
	s.inflight.Wait()
}

type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n models.Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}
