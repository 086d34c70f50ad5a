package dashboard

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/models"
)

func TestInbox_BoundedAndDrained(t *testing.T) {
	inbox := NewInbox(2)
	ctx := context.Background()

	inbox.Notify(ctx, models.Notification{Message: "one"})
	inbox.Notify(ctx, models.Notification{Message: "two"})
	inbox.Notify(ctx, models.Notification{Message: "three"})

	got := inbox.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, "three", got[1].Message)
	assert.Empty(t, inbox.Drain())
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	notifier := NewLogNotifier(logger.NewZapAdapter(zap.New(core)))

	notifier.Notify(context.Background(), models.Notification{Level: models.NotificationError, Message: "Disbursement failed", Operation: OpDisburse})
	notifier.Notify(context.Background(), models.Notification{Level: models.NotificationSuccess, Message: "Loan disbursed!"})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "Disbursement failed", entries[0].Message)
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
	// release, when set, is waited on before answering.
	release chan struct{}
}

func (f *fakePublisher) PublishJSON(ctx context.Context, subject string, payload interface{}, attributes map[string]string) (string, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return "id", f.err
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subjects...)
}

func TestSNSNotifier(t *testing.T) {
	pub := &fakePublisher{}
	notifier := NewSNSNotifier(pub, logger.NewTestLogger(t))

	notifier.Notify(context.Background(), models.Notification{Message: MsgLoadFailed})
	notifier.Notify(context.Background(), models.Notification{Message: MsgDisbursed, ApplicationID: "a1"})
	notifier.Wait()

	assert.Equal(t, []string{MsgDisbursed}, pub.published())

	pub.mu.Lock()
	pub.err = stderrors.New("throttled")
	pub.mu.Unlock()
	assert.NotPanics(t, func() {
		notifier.Notify(context.Background(), models.Notification{Message: MsgDisbursed, ApplicationID: "a1"})
		notifier.Wait()
	})
}

func TestSNSNotifier_SlowTopicDoesNotBlock(t *testing.T) {
	pub := &fakePublisher{release: make(chan struct{})}
	notifier := NewSNSNotifier(pub, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		notifier.Notify(ctx, models.Notification{Message: MsgDisbursed, ApplicationID: "a1"})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Notify waited on the publisher")
	}

	// The caller's context ending must not abort the publish.
	cancel()
	close(pub.release)
	notifier.Wait()
	assert.Equal(t, []string{MsgDisbursed}, pub.published())
}

func TestView_SNSNotifierDoesNotHoldOperations(t *testing.T) {
	pub := &fakePublisher{release: make(chan struct{})}
	sns := NewSNSNotifier(pub, logger.NewTestLogger(t))
	gw := &fakeGateway{apps: sampleApps()}
	view := NewView(ViewOptions{
		Principal: adminPrincipal,
		Gateway:   gw,
		Notifier:  sns,
		Logger:    logger.NewTestLogger(t),
	})
	require.NoError(t, view.Mount(context.Background()))

	done := make(chan error, 1)
	go func() { done <- view.Approve(context.Background(), "a1") }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Approve waited on the SNS publish")
	}

	close(pub.release)
	sns.Wait()
	assert.Equal(t, []string{"Application approved!"}, pub.published())
}

func TestMultiNotifier(t *testing.T) {
	a, b := NewInbox(5), NewInbox(5)
	MultiNotifier{a, nil, b}.Notify(context.Background(), models.Notification{Message: "x"})
	assert.Len(t, a.Drain(), 1)
	assert.Len(t, b.Drain(), 1)
}
