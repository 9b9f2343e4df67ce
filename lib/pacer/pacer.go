// Package pacer spaces out and retries calls to the Dropbox API
package pacer

import (
	"context"
	"sync"
	"time"

	"github.com/rclone/dbxclient/fs"
	"github.com/rclone/dbxclient/fs/fserrors"
)

// Pacer state
type Pacer struct {
	mu            sync.Mutex    // Protecting read/writes
	minSleep      time.Duration // minimum sleep time
	maxSleep      time.Duration // maximum sleep time
	decayConstant uint          // decay constant
	pacer         chan struct{} // To pace the operations
	sleepTime     time.Duration // Time to sleep for each transaction
}

// Paced is a function which is called by CallN. It should return a
// boolean, true if it would like to be retried, and an error.
//
// If the error carries a retry after time (see fserrors.RetryAfter)
// the next attempt is not made until then.
type Paced func() (bool, error)

// Option configures a Pacer
type Option func(*Pacer)

// MinSleep sets the minimum sleep time for the pacer
func MinSleep(t time.Duration) Option {
	return func(p *Pacer) { p.minSleep = t }
}

// MaxSleep sets the maximum sleep time for the pacer
func MaxSleep(t time.Duration) Option {
	return func(p *Pacer) { p.maxSleep = t }
}

// DecayConstant sets the decay constant for the pacer
//
// This is the speed the time falls back to the minimum after errors
// have occurred.
//
// bigger for slower decay, exponential. 1 is halve, 0 is go straight to minimum
func DecayConstant(decay uint) Option {
	return func(p *Pacer) { p.decayConstant = decay }
}

// New returns a Pacer with sensible defaults
func New(options ...Option) *Pacer {
	p := &Pacer{
		minSleep:      10 * time.Millisecond,
		maxSleep:      2 * time.Second,
		decayConstant: 2,
		pacer:         make(chan struct{}, 1),
	}
	for _, option := range options {
		option(p)
	}
	p.sleepTime = p.minSleep

	// Put the first pacing token in
	p.pacer <- struct{}{}

	return p
}

// Start a call to the API
//
// This must be called as a pair with endCall.
//
// This waits for the pacer token
func (p *Pacer) beginCall() {
	// pacer starts with a token in and whenever we take one out
	// sleepTime later we put another in
	<-p.pacer

	p.mu.Lock()
	go func(t time.Duration) {
		time.Sleep(t)
		p.pacer <- struct{}{}
	}(p.sleepTime)
	p.mu.Unlock()
}

// defaultPacer implements a truncated exponential attack and decay
//
// The sleep time doubles after each call which wants a retry and
// decays back towards minSleep after each call which doesn't.
//
// Called with the lock held
func (p *Pacer) defaultPacer(again bool) {
	oldSleepTime := p.sleepTime
	if again {
		p.sleepTime *= 2
		if p.sleepTime > p.maxSleep {
			p.sleepTime = p.maxSleep
		}
		if p.sleepTime != oldSleepTime {
			fs.Debugf("pacer", "Rate limited, increasing sleep to %v", p.sleepTime)
		}
	} else {
		p.sleepTime = (p.sleepTime<<p.decayConstant - p.sleepTime) >> p.decayConstant
		if p.sleepTime < p.minSleep {
			p.sleepTime = p.minSleep
		}
		if p.sleepTime != oldSleepTime {
			fs.Debugf("pacer", "Reducing sleep to %v", p.sleepTime)
		}
	}
}

// endCall implements the pacing algorithm
func (p *Pacer) endCall(again bool) {
	p.mu.Lock()
	p.defaultPacer(again)
	p.mu.Unlock()
}

// waitRetryAfter sleeps until the retry after time carried by err,
// if any, returning early with the context error if ctx is done
func waitRetryAfter(ctx context.Context, err error) error {
	retryAfter := fserrors.RetryAfterErrorTime(err)
	if retryAfter.IsZero() {
		return nil
	}
	d := time.Until(retryAfter)
	if d <= 0 {
		return nil
	}
	fs.Debugf("pacer", "Server asked us to wait, sleeping for %v", d)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CallN paces fn, calling it until it doesn't ask for a retry or
// tries attempts have been made. tries less than 1 is treated as 1.
//
// The error from the last attempt is returned as is, unless ctx is
// done while waiting out a retry after time, when the context error
// is returned.
func (p *Pacer) CallN(ctx context.Context, tries int, fn Paced) (err error) {
	if tries < 1 {
		tries = 1
	}
	var again bool
	for i := 0; i < tries; i++ {
		p.beginCall()
		again, err = fn()
		p.endCall(again)
		if !again || i == tries-1 {
			break
		}
		fs.Debugf("pacer", "low level retry %d/%d (error %v)", i+1, tries-1, err)
		if waitErr := waitRetryAfter(ctx, err); waitErr != nil {
			return waitErr
		}
	}
	return err
}
