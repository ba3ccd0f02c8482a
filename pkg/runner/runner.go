// Package runner owns the asynchronous execution of animation generation
// jobs. Submissions persist a pending animation and return immediately; a
// bounded worker pool drives each job pending -> processing -> terminal,
// writing every transition to the store before moving on. Pollers observe
// the store only, never runner internals.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/abhishekgusain07/studioanimations.app/models"
	"github.com/abhishekgusain07/studioanimations.app/pkg/services"
	"github.com/abhishekgusain07/studioanimations.app/pkg/store"
	utils "github.com/abhishekgusain07/studioanimations.app/pkg/utills"
)

var (
	// ErrQueueFull is returned when the bounded render queue cannot accept
	// another job. Controllers map it to 503.
	ErrQueueFull = errors.New("render queue is full")
	// ErrStopped is returned for submissions after shutdown began.
	ErrStopped = errors.New("runner is shutting down")
)

type job struct {
	animationID  string
	query        string
	quality      string
	previousCode string
}

// Options tunes pool size, queue depth and job deadlines.
type Options struct {
	Workers       int
	QueueSize     int
	RenderTimeout time.Duration
	StaleAfter    time.Duration
	SweepInterval time.Duration
}

func (o *Options) withDefaults() {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 32
	}
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = 5 * time.Minute
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = 15 * time.Minute
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
}

type Runner struct {
	store   *store.Store
	codegen services.CodeGenerator
	render  services.Renderer
	opts    Options

	jobs chan job
	quit chan struct{}
	wg   sync.WaitGroup

	mu       sync.RWMutex
	stopping bool
	stopOnce sync.Once

	baseCtx context.Context
	cancel  context.CancelFunc
}

func New(st *store.Store, gen services.CodeGenerator, rend services.Renderer, opts Options) *Runner {
	opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:   st,
		codegen: gen,
		render:  rend,
		opts:    opts,
		jobs:    make(chan job, opts.QueueSize),
		quit:    make(chan struct{}),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Start launches the worker pool and the stale-job sweep loop.
func (r *Runner) Start() {
	for i := 0; i < r.opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	go r.sweepLoop()
	log.Printf("[runner] started %d workers, queue size %d", r.opts.Workers, r.opts.QueueSize)
}

// Submit validates the request, persists a pending animation with the next
// version for its conversation, and hands the job to the pool. It never
// blocks on rendering; the caller gets the persisted record back right away.
func (r *Runner) Submit(userID, conversationID, query, quality, previousCode string) (*models.Animation, error) {
	if !models.ValidQuality(quality) {
		return nil, fmt.Errorf("%w: quality must be one of low, medium, high", store.ErrValidation)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", store.ErrValidation)
	}
	if !utils.HasLetter(query) {
		return nil, fmt.Errorf("%w: query must describe a scene in words", store.ErrValidation)
	}

	conv, err := r.store.ResolveOrCreate(userID, conversationID, query)
	if err != nil {
		return nil, err
	}

	anim, err := r.store.CreateAnimation(conv.ID, userID, query, quality)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopping {
		_ = r.store.MarkFailed(anim.ID, "server shut down before rendering started")
		return nil, ErrStopped
	}
	select {
	case r.jobs <- job{animationID: anim.ID, query: query, quality: quality, previousCode: previousCode}:
	default:
		// queue full is backpressure; fail the record so it never sits
		// pending forever, and let the client retry with a new submit
		_ = r.store.MarkFailed(anim.ID, "render queue is full; please retry shortly")
		return nil, ErrQueueFull
	}
	return anim, nil
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()
	for j := range r.jobs {
		if r.isStopping() {
			_ = r.store.MarkFailed(j.animationID, "server shut down before rendering started")
			continue
		}
		r.process(id, j)
	}
}

func (r *Runner) isStopping() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stopping
}

// process drives one job to a terminal state. Every transition is written
// to the store as a full snapshot before the next step starts.
func (r *Runner) process(workerID int, j job) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[runner] worker %d panic on %s: %v", workerID, j.animationID, rec)
			_ = r.store.MarkFailed(j.animationID, "internal error while generating the animation")
		}
	}()

	ctx, cancel := context.WithTimeout(r.baseCtx, r.opts.RenderTimeout)
	defer cancel()

	if err := r.store.MarkProcessing(j.animationID); err != nil {
		// already terminal (swept or conversation deleted); nothing to do
		log.Printf("[runner] skip job %s: %v", j.animationID, err)
		return
	}

	if err := r.store.SetProgress(j.animationID, 10, "Generating animation code"); err != nil {
		log.Printf("[runner] progress write failed for %s: %v", j.animationID, err)
	}

	code, err := r.codegen.Generate(ctx, j.query, j.previousCode)
	if err != nil {
		r.fail(j.animationID, classify(ctx, "code generation failed", err))
		return
	}
	if err := r.store.SetGeneratedCode(j.animationID, code); err != nil {
		log.Printf("[runner] storing code failed for %s: %v", j.animationID, err)
	}

	if err := r.store.SetProgress(j.animationID, 30, "Rendering animation"); err != nil {
		log.Printf("[runner] progress write failed for %s: %v", j.animationID, err)
	}

	videoURL, err := r.render.Render(ctx, code, j.quality, func(pct float64, note string) {
		// renderer progress maps into the 30..95 band
		if pct < 30 {
			pct = 30
		}
		if pct > 95 {
			pct = 95
		}
		if err := r.store.SetProgress(j.animationID, pct, note); err != nil {
			log.Printf("[runner] progress write failed for %s: %v", j.animationID, err)
		}
	})
	if err != nil {
		r.fail(j.animationID, classify(ctx, "rendering failed", err))
		return
	}

	if err := r.store.MarkCompleted(j.animationID, videoURL); err != nil {
		log.Printf("[runner] completion write failed for %s: %v", j.animationID, err)
		return
	}
	log.Printf("[runner] animation %s completed", j.animationID)
}

func (r *Runner) fail(animationID, message string) {
	if err := r.store.MarkFailed(animationID, message); err != nil {
		log.Printf("[runner] failure write failed for %s: %v", animationID, err)
		return
	}
	log.Printf("[runner] animation %s failed: %s", animationID, message)
}

// classify maps an execution error onto the stored user-facing message.
func classify(ctx context.Context, stage string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "animation rendering timed out"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "internal error while generating the animation"
	}
	return stage + ": " + msg
}

func (r *Runner) sweepLoop() {
	t := time.NewTicker(r.opts.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			n, err := r.store.SweepStale(r.opts.StaleAfter)
			if err != nil {
				log.Printf("[runner] stale sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[runner] stale sweep marked %d lost jobs as failed", n)
			}
		case <-r.quit:
			return
		}
	}
}

// Stop drains the pool. New submissions are rejected, queued jobs that never
// started are failed with a shutdown reason, and in-flight renders are
// cancelled once ctx expires.
func (r *Runner) Stop(ctx context.Context) {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopping = true
		close(r.jobs)
		r.mu.Unlock()
		close(r.quit)

		done := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			r.cancel()
			<-done
		}
		log.Printf("[runner] stopped")
	})
}
