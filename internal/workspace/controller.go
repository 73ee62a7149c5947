package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrResponseMissing is returned when the service reports success but sends no image.
var ErrResponseMissing = errors.New("no image data found in the response")

// Controller owns one workspace's state. Events are applied one at a time;
// the transformation call itself runs without holding the lock so that zoom,
// pan and drawing stay responsive while a request is pending.
type Controller struct {
	mu    sync.Mutex
	state State
	svc   Transformer
	wg    sync.WaitGroup
}

// NewController mounts an empty workspace backed by svc.
func NewController(svc Transformer) *Controller {
	return &Controller{state: New(), svc: svc}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch validates e and applies it.
func (c *Controller) Dispatch(e Event) (State, error) {
	if err := Validate(e); err != nil {
		return c.State(), err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, e)
	return c.state, nil
}

// Upload replaces the source image.
func (c *Controller) Upload(img Image, info ImageInfo) State {
	s, _ := c.Dispatch(Uploaded{Image: img, Info: info})
	log.Debug().
		Uint64("generation", s.Generation).
		Str("mime", img.MIMEType).
		Int("bytes", len(img.Data)).
		Msg("Workspace image uploaded")
	return s
}

// begin checks preconditions and moves the workspace to the requesting state.
// A precondition failure is recorded as the workspace error and returned.
func (c *Controller) begin() (Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := c.state.PrepareApply()
	if err != nil {
		// A busy workspace keeps showing its progress rather than an error.
		if !errors.Is(err, ErrBusy) {
			c.state = Reduce(c.state, ApplyRejected{Err: err})
		}
		return Request{}, err
	}
	c.state = Reduce(c.state, ApplyStarted{Generation: req.Generation})
	return req, nil
}

// finish records the outcome of req and returns the error it settled with.
func (c *Controller) finish(req Request, data []byte, err error) (State, error) {
	if err == nil && len(data) == 0 {
		err = ErrResponseMissing
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stale := req.Generation != c.state.Generation
	if err != nil {
		c.state = Reduce(c.state, ApplyFailed{Generation: req.Generation, Message: UserMessage(err)})
	} else {
		c.state = Reduce(c.state, ApplySucceeded{Generation: req.Generation, Data: data})
	}
	if stale {
		log.Warn().
			Uint64("request_generation", req.Generation).
			Uint64("current_generation", c.state.Generation).
			Msg("Discarded transformation response for a replaced image")
	}
	return c.state, err
}

func (c *Controller) run(ctx context.Context, req Request) (State, error) {
	start := time.Now()
	log.Info().
		Str("tool", string(req.Tool)).
		Uint64("generation", req.Generation).
		Int("image_bytes", len(req.Image.Data)).
		Int("mask_bytes", len(req.Mask)).
		Msg("Applying transformation")

	data, err := req.Send(ctx, c.svc)
	s, err := c.finish(req, data, err)

	evt := log.Info()
	if err != nil {
		evt = log.Warn().Err(err)
	}
	evt.Str("tool", string(req.Tool)).
		Dur("duration", time.Since(start)).
		Bool("has_result", s.HasResult()).
		Msg("Transformation finished")
	return s, err
}

// Apply runs the active tool synchronously and returns the resulting state.
// The error is a precondition error, or the service error when the call failed.
func (c *Controller) Apply(ctx context.Context) (State, error) {
	req, err := c.begin()
	if err != nil {
		return c.State(), err
	}
	return c.run(ctx, req)
}

// ApplyAsync checks preconditions, starts the transformation in the background
// and returns immediately. Poll State for the outcome.
func (c *Controller) ApplyAsync(ctx context.Context) (State, error) {
	req, err := c.begin()
	if err != nil {
		return c.State(), err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx, req)
	}()
	return c.State(), nil
}

// Wait blocks until every background transformation has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}
