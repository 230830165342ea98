package mailer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/storefront/internal/mailer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingSender struct {
	mu       sync.Mutex
	sent     []mailer.Message
	attempts int
	err      error
	block    chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, msg mailer.Message) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *recordingSender) Sent() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.sent...)
}

var _ = Describe("Dispatcher", func() {
	var (
		sender *recordingSender
		logger *slog.Logger
	)

	BeforeEach(func() {
		sender = &recordingSender{}
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	})

	It("should deliver queued messages", func() {
		d := mailer.NewDispatcher(sender, mailer.DispatcherConfig{Workers: 2, QueueSize: 10}, logger)
		msg := mailer.Message{To: "a@x.com", Subject: "hi", HTMLBody: "<p>hi</p>"}

		Expect(d.Send(context.Background(), msg)).To(Succeed())
		Expect(d.Shutdown(context.Background())).To(Succeed())

		Expect(sender.Sent()).To(ConsistOf(msg))
	})

	It("should make exactly one attempt when delivery fails", func() {
		sender.err = errors.New("relay down")
		d := mailer.NewDispatcher(sender, mailer.DispatcherConfig{Workers: 1, QueueSize: 10}, logger)

		var mu sync.Mutex
		var results []string
		d.OnResult(func(result string) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, result)
		})

		Expect(d.Send(context.Background(), mailer.Message{To: "a@x.com"})).To(Succeed())
		Expect(d.Shutdown(context.Background())).To(Succeed())

		Expect(sender.Attempts()).To(Equal(1))
		mu.Lock()
		defer mu.Unlock()
		Expect(results).To(Equal([]string{mailer.ResultFailed}))
	})

	It("should reject messages after shutdown", func() {
		d := mailer.NewDispatcher(sender, mailer.DispatcherConfig{}, logger)
		Expect(d.Shutdown(context.Background())).To(Succeed())
		Expect(d.Send(context.Background(), mailer.Message{To: "a@x.com"})).To(MatchError(mailer.ErrDispatcherClosed))
	})

	It("should report a full queue instead of blocking", func() {
		sender.block = make(chan struct{})
		d := mailer.NewDispatcher(sender, mailer.DispatcherConfig{Workers: 1, QueueSize: 1}, logger)

		var lastErr error
		for i := 0; i < 5; i++ {
			if err := d.Send(context.Background(), mailer.Message{To: "a@x.com"}); err != nil {
				lastErr = err
			}
		}
		Expect(lastErr).To(MatchError(mailer.ErrQueueFull))

		close(sender.block)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(d.Shutdown(ctx)).To(Succeed())
	})
})
