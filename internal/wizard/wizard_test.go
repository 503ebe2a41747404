package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizard_StartsAtDetails(t *testing.T) {
	w := New("deposit")
	assert.Equal(t, Details, w.Step())
	assert.False(t, w.Submitted())
	assert.Empty(t, w.Error())
}

func TestWizard_ForwardAndBack(t *testing.T) {
	w := New("deposit")

	require.NoError(t, w.Navigate(Confirm))
	assert.Equal(t, Confirm, w.Step())

	w.Back()
	assert.Equal(t, Details, w.Step())

	// Back from Details is a no-op
	w.Back()
	assert.Equal(t, Details, w.Step())
}

func TestWizard_DoneRequiresSubmission(t *testing.T) {
	w := New("withdrawal")

	err := w.Navigate(Done)
	require.ErrorIs(t, err, ErrSubmissionRequired)
	assert.Equal(t, Details, w.Step())
	assert.False(t, w.Submitted())
}

func TestWizard_InvalidStep(t *testing.T) {
	w := New("deposit")
	for _, s := range []Step{0, 4, -1} {
		assert.ErrorIs(t, w.Navigate(s), ErrInvalidStep)
	}
}

func TestWizard_ConfirmSuccess(t *testing.T) {
	w := New("deposit")
	require.NoError(t, w.Navigate(Confirm))

	calls := 0
	err := w.Confirm(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Done, w.Step())
	assert.True(t, w.Submitted())

	// navigating back to Done after a confirmed submission is allowed
	require.NoError(t, w.Navigate(Details))
	require.NoError(t, w.Navigate(Done))
}

func TestWizard_ConfirmFailureStaysAtConfirm(t *testing.T) {
	w := New("deposit")
	require.NoError(t, w.Navigate(Confirm))

	serverErr := errors.New("Deposit gateway is temporarily unavailable")
	err := w.Confirm(context.Background(), func(ctx context.Context) error {
		return serverErr
	})
	require.ErrorIs(t, err, serverErr)
	assert.Equal(t, Confirm, w.Step())
	assert.False(t, w.Submitted())
	assert.Equal(t, "Deposit gateway is temporarily unavailable", w.Error())

	// Back clears the displayed error but nothing else
	w.Back()
	assert.Empty(t, w.Error())
}

func TestWizard_ConfirmOnlyFromConfirmStep(t *testing.T) {
	w := New("deposit")
	err := w.Confirm(context.Background(), func(ctx context.Context) error {
		t.Fatal("submit must not run outside the confirm step")
		return nil
	})
	assert.ErrorIs(t, err, ErrNotAtConfirm)
}

func TestWizard_RejectsConcurrentConfirm(t *testing.T) {
	w := New("deposit")
	require.NoError(t, w.Navigate(Confirm))

	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = w.Confirm(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	assert.True(t, w.Submitting())
	err := w.Confirm(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrSubmitting)

	close(release)
	wg.Wait()
	assert.False(t, w.Submitting())
	assert.Equal(t, Done, w.Step())
}

func TestWizard_Reset(t *testing.T) {
	w := New("deposit")
	require.NoError(t, w.Navigate(Confirm))
	require.NoError(t, w.Confirm(context.Background(), func(ctx context.Context) error { return nil }))

	w.Reset()
	assert.Equal(t, Details, w.Step())
	assert.False(t, w.Submitted())
	assert.ErrorIs(t, w.Navigate(Done), ErrSubmissionRequired)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "details", Details.String())
	assert.Equal(t, "confirm", Confirm.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "step(7)", Step(7).String())
}
