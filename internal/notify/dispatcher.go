// Package notify sends comment notifications in the background.
package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/headless-comments-api/internal/config"
	"github.com/headless-comments-api/internal/metrics"
	"github.com/headless-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

// Notification kinds
const (
	KindAuthor    = "author"
	KindModerator = "moderator"
)

var (
	// ErrQueueFull is returned when a notification cannot be queued without blocking
	ErrQueueFull = errors.New("notification queue full")
	// ErrStopped is returned after Stop
	ErrStopped = errors.New("notification dispatcher stopped")
)

type job struct {
	kind      string
	commentID int64
}

// Dispatcher queues notifications and delivers them from a fixed pool of workers
type Dispatcher struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	mailer   Mailer
	cfg      config.NotifyConfig
	siteName string
	metrics  *metrics.Metrics
	log      zerolog.Logger

	queue   chan job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
	stopped bool
}

// NewDispatcher creates a dispatcher; call Start to begin delivery
func NewDispatcher(repos *repository.Repositories, mailer Mailer, cfg config.NotifyConfig, siteName string, m *metrics.Metrics, log zerolog.Logger) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}

	return &Dispatcher{
		posts:    repos.Post,
		comments: repos.Comment,
		mailer:   mailer,
		cfg:      cfg,
		siteName: siteName,
		metrics:  m,
		log:      log.With().Str("component", "notifier").Logger(),
		queue:    make(chan job, cfg.QueueSize),
	}
}

// NotifyAuthor queues a mail to the post author about an approved comment
func (d *Dispatcher) NotifyAuthor(ctx context.Context, commentID int64) error {
	return d.enqueue(job{kind: KindAuthor, commentID: commentID})
}

// NotifyModerator queues a mail to the moderator about a held comment
func (d *Dispatcher) NotifyModerator(ctx context.Context, commentID int64) error {
	return d.enqueue(job{kind: KindModerator, commentID: commentID})
}

func (d *Dispatcher) enqueue(j job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queue <- j:
		d.metrics.SetQueueDepth(len(d.queue))
		return nil
	default:
		d.log.Error().Str("kind", j.kind).Int64("comment_id", j.commentID).Msg("Notification queue full, dropping notification")
		d.metrics.IncNotification(j.kind, "dropped")
		return ErrQueueFull
	}
}

// Start launches the workers. Notifications queued before Start are delivered once it runs.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running || d.stopped {
		return
	}
	d.running = true
	d.ctx, d.cancel = context.WithCancel(ctx)

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.log.Info().Int("workers", d.cfg.Workers).Int("queue_size", d.cfg.QueueSize).Msg("Notification dispatcher started")
}

// Stop refuses new notifications and waits for queued ones to be delivered. When ctx
// ends first, in-flight deliveries are cancelled.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	running := d.running
	d.mu.Unlock()

	if !running {
		return
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.log.Warn().Msg("Notification dispatcher stop timed out, cancelling deliveries")
		d.cancel()
		<-done
	}
	d.cancel()
	d.log.Info().Msg("Notification dispatcher stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for j := range d.queue {
		d.metrics.SetQueueDepth(len(d.queue))
		d.process(j)
	}
	d.log.Debug().Int("worker", id).Msg("Notification worker exiting")
}

// process delivers one notification; a panic is logged and the worker keeps running
func (d *Dispatcher) process(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Int64("comment_id", j.commentID).
				Msg("Notification delivery panicked - recovered")
			d.metrics.IncNotification(j.kind, "failed")
		}
	}()

	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.SendTimeout)
	defer cancel()

	status, err := d.deliver(ctx, j)
	if err != nil {
		d.log.Error().Err(err).Str("kind", j.kind).Int64("comment_id", j.commentID).Msg("Failed to send notification")
	} else {
		d.log.Debug().Str("kind", j.kind).Int64("comment_id", j.commentID).Str("status", status).Msg("Notification processed")
	}
	d.metrics.IncNotification(j.kind, status)
}

// deliver returns the metric status: sent, skipped or failed
func (d *Dispatcher) deliver(ctx context.Context, j job) (string, error) {
	comment, err := d.comments.GetByID(ctx, j.commentID)
	if err != nil {
		return "failed", err
	}
	if comment == nil {
		return "skipped", nil
	}

	post, err := d.posts.GetByID(ctx, comment.PostID)
	if err != nil {
		return "failed", err
	}
	if post == nil {
		return "skipped", nil
	}

	var msg Message
	switch j.kind {
	case KindAuthor:
		if post.AuthorEmail == "" || strings.EqualFold(post.AuthorEmail, comment.AuthorEmail) {
			return "skipped", nil
		}
		msg, err = authorMessage(d.siteName, post, comment)
	default:
		to := d.cfg.ModeratorEmail
		if to == "" {
			to = post.AuthorEmail
		}
		if to == "" {
			return "skipped", nil
		}
		msg, err = moderatorMessage(d.siteName, to, post, comment)
	}
	if err != nil {
		return "failed", err
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		return "failed", err
	}
	return "sent", nil
}
