package activation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smsrent/internal/provider"
)

// fakeAPI scripts provider replies and records every call for assertions.
type fakeAPI struct {
	rentReply   provider.Reply
	rentErr     error
	statusReply provider.Reply
	statusErr   error
	setReply    provider.Reply
	setErr      error

	rentCalls   int
	statusCalls int
	setCalls    []int
}

func (f *fakeAPI) RentNumber(ctx context.Context, service string, countryID int) (provider.Reply, error) {
	f.rentCalls++
	return f.rentReply, f.rentErr
}

func (f *fakeAPI) Status(ctx context.Context, activationID string) (provider.Reply, error) {
	f.statusCalls++
	return f.statusReply, f.statusErr
}

func (f *fakeAPI) SetStatus(ctx context.Context, activationID string, status int) (provider.Reply, error) {
	f.setCalls = append(f.setCalls, status)
	return f.setReply, f.setErr
}

func TestRequestSuccess(t *testing.T) {
	api := &fakeAPI{rentReply: provider.ParseReply("ACCESS_NUMBER:12345:+48600000000")}
	flow := NewFlow(api)

	act, err := flow.Request(context.Background(), "tg", 48)
	require.NoError(t, err)
	assert.Equal(t, "12345", act.ID)
	assert.Equal(t, "+48600000000", act.PhoneNumber)
	assert.Equal(t, "tg", act.Service)
	assert.Equal(t, 48, act.CountryID)
	assert.Equal(t, StateAwaitingCode, act.State)
}

func TestRequestSentinels(t *testing.T) {
	cases := []struct {
		reply string
		want  error
	}{
		{"NO_NUMBERS", ErrNoNumbers},
		{"NO_BALANCE", ErrNoBalance},
	}
	for _, tc := range cases {
		api := &fakeAPI{rentReply: provider.ParseReply(tc.reply)}
		act, err := NewFlow(api).Request(context.Background(), "tg", 48)
		assert.Nil(t, act)
		assert.ErrorIs(t, err, tc.want)
	}
}

func TestRequestUnknownReplyIsDomainError(t *testing.T) {
	api := &fakeAPI{rentReply: provider.ParseReply("WRONG_SERVICE")}
	act, err := NewFlow(api).Request(context.Background(), "tg", 48)
	assert.Nil(t, act)
	var derr *provider.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "WRONG_SERVICE", derr.Raw)
}

func TestRequestTransportErrorPassesThrough(t *testing.T) {
	api := &fakeAPI{rentErr: provider.ErrUnavailable}
	act, err := NewFlow(api).Request(context.Background(), "tg", 48)
	assert.Nil(t, act)
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.Equal(t, 1, api.rentCalls)
}

func TestPollWaitingKeepsState(t *testing.T) {
	api := &fakeAPI{statusReply: provider.ParseReply("STATUS_WAIT_CODE")}
	flow := NewFlow(api)
	act := &Activation{ID: "12345", State: StateAwaitingCode}

	result, code, err := flow.Poll(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, PollWaiting, result)
	assert.Empty(t, code)
	assert.Equal(t, StateAwaitingCode, act.State)
	assert.Empty(t, api.setCalls)
}

func TestPollCodeReadyConfirmsOnce(t *testing.T) {
	api := &fakeAPI{
		statusReply: provider.ParseReply("STATUS_OK:998877"),
		setReply:    provider.ParseReply("ACCESS_READY"),
	}
	flow := NewFlow(api)
	act := &Activation{ID: "12345", State: StateAwaitingCode}

	result, code, err := flow.Poll(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, PollCodeReady, result)
	assert.Equal(t, "998877", code)
	assert.Equal(t, StateVerified, act.State)
	assert.Equal(t, []int{provider.StatusConfirm}, api.setCalls)

	// A second poll returns the stored code without touching the provider.
	result, code, err = flow.Poll(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, PollCodeReady, result)
	assert.Equal(t, "998877", code)
	assert.Equal(t, 1, api.statusCalls)
	assert.Equal(t, []int{provider.StatusConfirm}, api.setCalls)
}

func TestPollConfirmFailureNotSurfaced(t *testing.T) {
	api := &fakeAPI{
		statusReply: provider.ParseReply("STATUS_OK:998877"),
		setErr:      provider.ErrUnavailable,
	}
	act := &Activation{ID: "12345", State: StateAwaitingCode}

	result, code, err := NewFlow(api).Poll(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, PollCodeReady, result)
	assert.Equal(t, "998877", code)
	assert.Equal(t, StateVerified, act.State)
}

func TestPollUnexpectedPreservesRaw(t *testing.T) {
	api := &fakeAPI{statusReply: provider.ParseReply("STATUS_CANCEL")}
	act := &Activation{ID: "12345", State: StateAwaitingCode}

	result, raw, err := NewFlow(api).Poll(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, PollUnexpected, result)
	assert.Equal(t, "STATUS_CANCEL", raw)
	assert.Equal(t, StateAwaitingCode, act.State)
}

func TestPollTransportError(t *testing.T) {
	api := &fakeAPI{statusErr: provider.ErrUnavailable}
	act := &Activation{ID: "12345", State: StateAwaitingCode}

	_, _, err := NewFlow(api).Poll(context.Background(), act)
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.Equal(t, StateAwaitingCode, act.State)
}

func TestCancelAccepted(t *testing.T) {
	api := &fakeAPI{setReply: provider.ParseReply("ACCESS_CANCEL")}
	act := &Activation{ID: "12345", State: StateAwaitingCode}

	require.NoError(t, NewFlow(api).Cancel(context.Background(), act))
	assert.Equal(t, StateCancelled, act.State)
	assert.Equal(t, []int{provider.StatusCancel}, api.setCalls)
}

func TestCancelRejectedKeepsState(t *testing.T) {
	api := &fakeAPI{setReply: provider.ParseReply("EARLY_CANCEL_DENIED")}
	act := &Activation{ID: "12345", State: StateAwaitingCode}

	err := NewFlow(api).Cancel(context.Background(), act)
	var derr *provider.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "EARLY_CANCEL_DENIED", derr.Raw)
	assert.Equal(t, StateAwaitingCode, act.State)

	// Cancel stays retryable after a rejection.
	api.setReply = provider.ParseReply("ACCESS_CANCEL")
	require.NoError(t, NewFlow(api).Cancel(context.Background(), act))
	assert.Equal(t, StateCancelled, act.State)
}

func TestCancelAlreadyCancelledIsNoop(t *testing.T) {
	api := &fakeAPI{}
	act := &Activation{ID: "12345", State: StateCancelled}

	require.NoError(t, NewFlow(api).Cancel(context.Background(), act))
	assert.Empty(t, api.setCalls)
}

func TestRentPollConfirmEndToEnd(t *testing.T) {
	api := &fakeAPI{
		rentReply:   provider.ParseReply("ACCESS_NUMBER:12345:+48600000000"),
		statusReply: provider.ParseReply("STATUS_WAIT_CODE"),
		setReply:    provider.ParseReply("ACCESS_READY"),
	}
	flow := NewFlow(api)

	act, err := flow.Request(context.Background(), "tg", 48)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingCode, act.State)

	result, _, err := flow.Poll(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, PollWaiting, result)
	assert.Equal(t, StateAwaitingCode, act.State)

	api.statusReply = provider.ParseReply("STATUS_OK:998877")
	result, code, err := flow.Poll(context.Background(), act)
	require.NoError(t, err)
	assert.Equal(t, PollCodeReady, result)
	assert.Equal(t, "998877", code)
	assert.Equal(t, StateVerified, act.State)
	assert.Equal(t, []int{provider.StatusConfirm}, api.setCalls)

	// Cancelling a verified activation is rejected upstream by the provider;
	// here the state machine alone must refuse to regress.
	api.setReply = provider.ParseReply("ACCESS_CANCEL")
	_ = NewFlow(api).Cancel(context.Background(), act)
	assert.Equal(t, StateVerified, act.State)
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrNoNumbers, ErrNoBalance))
	assert.False(t, errors.Is(ErrNoBalance, provider.ErrUnavailable))
}
