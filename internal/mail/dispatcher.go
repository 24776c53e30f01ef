package mail

import (
	"context"
	"log/slog"
	"sync"

	"github.com/segmentio/ksuid"

	"github.com/kumar-mithlesh/headless-api/internal/config"
	"github.com/kumar-mithlesh/headless-api/internal/platform/logger"
	"github.com/kumar-mithlesh/headless-api/internal/redact"
)

// Dispatcher runs a pool of workers that drain a Queue into a Sender.
type Dispatcher struct {
	queue       *Queue
	sender      Sender
	from        string
	workerCount int

	wg     sync.WaitGroup
	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewDispatcher builds a dispatcher from configuration. Workers do not run
// until Start.
func NewDispatcher(cfg config.MailConfig, sender Sender, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "mail_dispatcher")

	workers := cfg.WorkerCount
	if workers <= 0 {
		log.Warn("invalid worker count specified, using default",
			"specified_count", cfg.WorkerCount,
			"default_count", 1)
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		queue:       NewQueue(cfg.QueueSize),
		sender:      sender,
		from:        cfg.From,
		workerCount: workers,
		ctx:         ctx,
		cancel:      cancel,
		logger:      log,
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	d.logger.Info("starting mail workers", "worker_count", d.workerCount)
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.work(i)
	}
}

// Dispatch assigns msg an id and queues it. It never blocks; a full or closed
// queue is returned as an error for the caller to log.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	msg.ID = ksuid.New().String()
	if msg.Payload == nil {
		msg.Payload = map[string]string{}
	}
	if _, ok := msg.Payload["from"]; !ok && d.from != "" {
		msg.Payload["from"] = d.from
	}

	log := logger.FromContextOrDefault(ctx, d.logger)
	if err := d.queue.Enqueue(msg); err != nil {
		log.Error("failed to queue mail",
			"message_id", msg.ID,
			"template", msg.Template,
			"error", redact.Error(err))
		return err
	}
	log.Debug("mail queued",
		"message_id", msg.ID,
		"template", msg.Template,
		"queue_len", d.queue.Len())
	return nil
}

// Stop closes the queue and waits for workers to drain it, or for ctx to
// expire, whichever happens first. In-flight sends are cancelled on expiry.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.once.Do(d.queue.Close)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.logger.Info("mail workers stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		d.logger.Warn("mail workers did not drain before shutdown deadline", "pending", d.queue.Len())
		return ctx.Err()
	}
}

func (d *Dispatcher) work(id int) {
	defer d.wg.Done()
	log := d.logger.With("worker_id", id)

	for msg := range d.queue.Channel() {
		if err := d.sender.Send(d.ctx, msg); err != nil {
			log.Error("mail delivery failed",
				"message_id", msg.ID,
				"template", msg.Template,
				"to", redact.Email(msg.To),
				"error", redact.Error(err))
			continue
		}
		log.Debug("mail sent", "message_id", msg.ID, "template", msg.Template)
	}
}
