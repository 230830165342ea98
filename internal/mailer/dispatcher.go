package mailer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull        = errors.New("mail queue is full")
	ErrDispatcherClosed = errors.New("mail dispatcher is closed")
)

const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

type Job struct {
	Message    Message
	EnqueuedAt time.Time
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher queues messages for a bounded pool of workers. Each message gets exactly
// one delivery attempt; failures are logged and reported to the result hook only.
type Dispatcher struct {
	sender      Sender
	logger      *slog.Logger
	sendTimeout time.Duration
	onResult    func(result string)

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	sendCtx    context.Context
	abort      context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	sendCtx, abort := context.WithCancel(context.Background())

	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		sender:      sender,
		logger:      logger,
		sendTimeout: sendTimeout,
		maxWorkers:  maxWorkers,
		jobQueue:    make(chan Job, queueSize),
		workerPool:  make(chan chan Job, maxWorkers),
		ctx:         ctx,
		cancel:      cancel,
		sendCtx:     sendCtx,
		abort:       abort,
	}

	d.start()
	return d
}

// OnResult registers a hook called with ResultSent or ResultFailed after each attempt.
func (d *Dispatcher) OnResult(fn func(result string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onResult = fn
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.wg, d.process)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("mail dispatcher started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for job := range d.jobQueue {
		select {
		case jobChannel := <-d.workerPool:
			select {
			case jobChannel <- job:
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			return
		}
	}
	// queue closed and drained: release idle workers
	d.cancel()
}

// Send enqueues msg without waiting for delivery.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.jobQueue <- Job{Message: msg, EnqueuedAt: time.Now()}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		d.logger.WarnContext(ctx, "mail queue full, dropping message", "subject", msg.Subject)
		return ErrQueueFull
	}
}

func (d *Dispatcher) process(job Job) {
	ctx, cancel := context.WithTimeout(d.sendCtx, d.sendTimeout)
	defer cancel()

	result := ResultSent
	if err := d.sender.Send(ctx, job.Message); err != nil {
		result = ResultFailed
		d.logger.Error("mail delivery failed",
			"to", job.Message.To,
			"subject", job.Message.Subject,
			"queued_for_ms", time.Since(job.EnqueuedAt).Milliseconds(),
			"error", err)
	} else {
		d.logger.Debug("mail delivered", "to", job.Message.To, "subject", job.Message.Subject)
	}

	d.mu.RLock()
	hook := d.onResult
	d.mu.RUnlock()
	if hook != nil {
		hook(result)
	}
}

// Shutdown stops intake and waits for queued messages to be attempted. When ctx
// expires first, in-flight deliveries are cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobQueue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.abort()
		d.logger.Info("mail dispatcher shutdown complete")
		return nil
	case <-ctx.Done():
		d.abort()
		d.cancel()
		<-done
		return ctx.Err()
	}
}
