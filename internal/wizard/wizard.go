// Package wizard implements the three-step Details -> Confirm -> Done flow
// shared by the deposit and withdrawal forms.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Step is the wizard position, as carried by the "step" navigation parameter
type Step int

const (
	Details Step = 1
	Confirm Step = 2
	Done    Step = 3
)

func (s Step) String() string {
	switch s {
	case Details:
		return "details"
	case Confirm:
		return "confirm"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

func (s Step) Valid() bool {
	return s >= Details && s <= Done
}

var (
	ErrInvalidStep        = errors.New("invalid wizard step")
	ErrSubmissionRequired = errors.New("done step requires a confirmed submission")
	ErrSubmitting         = errors.New("submission already in progress")
	ErrNotAtConfirm       = errors.New("submission is only possible from the confirm step")
)

// SubmitFunc performs the single outbound request of the confirm step
type SubmitFunc func(ctx context.Context) error

// Wizard tracks the current step and whether a submission went through.
// The zero value is not usable; call New.
type Wizard struct {
	name string

	mu         sync.Mutex
	step       Step
	submitting bool
	submitted  bool
	lastErr    string
}

func New(name string) *Wizard {
	return &Wizard{name: name, step: Details}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Submitted reports whether this pass reached Done through Confirm.
// Views render the Done content only when this is true.
func (w *Wizard) Submitted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitted
}

func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Error is the server message of the last failed confirm, verbatim
func (w *Wizard) Error() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Navigate moves to the given step as if the step parameter changed.
// Jumping to Done is refused unless a submission was confirmed.
func (w *Wizard) Navigate(step Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, int(step))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if step == Done && !w.submitted {
		zap.L().Warn("Refusing navigation to done step without submission",
			zap.String("wizard", w.name),
			zap.Stringer("from", w.step))
		return ErrSubmissionRequired
	}

	zap.L().Debug("Wizard navigation",
		zap.String("wizard", w.name),
		zap.Stringer("from", w.step),
		zap.Stringer("to", step))
	w.step = step
	return nil
}

// Back returns from Confirm to Details. The draft lives outside the
// wizard and is left untouched.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == Confirm {
		w.step = Details
		w.lastErr = ""
	}
}

// Confirm runs submit once. On success the wizard moves to Done; on failure
// it stays at Confirm and keeps the error text for display. No retry.
func (w *Wizard) Confirm(ctx context.Context, submit SubmitFunc) error {
	w.mu.Lock()
	if w.step != Confirm {
		w.mu.Unlock()
		return ErrNotAtConfirm
	}
	if w.submitting {
		w.mu.Unlock()
		return ErrSubmitting
	}
	w.submitting = true
	w.lastErr = ""
	w.mu.Unlock()

	err := submit(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if err != nil {
		w.lastErr = err.Error()
		zap.L().Info("Wizard submission failed",
			zap.String("wizard", w.name),
			zap.Error(err))
		return err
	}

	w.submitted = true
	w.step = Done
	zap.L().Info("Wizard submission confirmed", zap.String("wizard", w.name))
	return nil
}

// Reset starts a new pass at Details and forgets the previous submission
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = Details
	w.submitted = false
	w.submitting = false
	w.lastErr = ""
}
