package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-api/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Options configures a Dispatcher.
type Options struct {
	QueueSize   int
	Workers     int
	BaseURL     string
	SendTimeout time.Duration
}

// Dispatcher queues messages on a bounded channel drained by a fixed group of
// workers. When the queue is full new messages are dropped.
type Dispatcher struct {
	sender Sender
	opts   Options
	log    logrus.FieldLogger

	queue  chan Message
	group  *errgroup.Group
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher. Call Start before enqueueing.
func NewDispatcher(sender Sender, opts Options, log logrus.FieldLogger) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 30 * time.Second
	}

	return &Dispatcher{
		sender: sender,
		opts:   opts,
		log:    logging.OrDiscard(log).WithField("component", "mailer"),
		queue:  make(chan Message, opts.QueueSize),
	}
}

// Start launches the workers. They exit once Close drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.group = &errgroup.Group{}
	for i := 0; i < d.opts.Workers; i++ {
		d.group.Go(func() error {
			for msg := range d.queue {
				d.deliver(ctx, msg)
			}
			return nil
		})
	}
}

// Close stops accepting messages and waits for queued ones to be sent.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	if d.group == nil {
		return nil
	}
	return d.group.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.SendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, msg); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"to":      msg.To,
			"subject": msg.Subject,
		}).Error("Failed to send email")
		return
	}

	d.log.WithField("to", msg.To).Debug("Email sent")
}

// Enqueue hands msg to the workers without blocking.
func (d *Dispatcher) Enqueue(msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.WithField("to", msg.To).Warn("Mailer closed, dropping email")
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.log.WithField("to", msg.To).Warn("Mail queue full, dropping email")
	}
}

func (d *Dispatcher) SendTeamInvitationEmail(to, teamName, token string) {
	d.Enqueue(teamInvitation(d.opts.BaseURL, to, teamName, token))
}

func (d *Dispatcher) SendProjectInvitationEmail(to, projectName, token string) {
	d.Enqueue(projectInvitation(d.opts.BaseURL, to, projectName, token))
}

func (d *Dispatcher) SendPasswordResetEmail(to, resetURL string) {
	d.Enqueue(passwordReset(to, resetURL))
}

func (d *Dispatcher) SendVerificationEmail(to, token string) {
	d.Enqueue(verification(d.opts.BaseURL, to, token))
}
