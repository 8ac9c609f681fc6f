package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var validInputs = []string{"Jane Doe", "jane@example.com", "555-123-4567", "consultation", "2025-06-01", "14:30"}

func fillAll(t *testing.T) State {
	t.Helper()
	st, res := Advance(NewState(), "book an appointment")
	require.Equal(t, FieldName.Prompt(), res.Text)
	for i, in := range validInputs {
		st, res = Advance(st, in)
		require.Nil(t, res.Booking)
		if i < len(validInputs)-1 {
			require.Equal(t, RequiredFields[i+1], st.AwaitingField)
			require.Equal(t, RequiredFields[i+1].Prompt(), res.Text)
		}
	}
	require.Equal(t, StageConfirming, st.Stage)
	for _, in := range validInputs {
		require.Contains(t, res.Text, in)
	}
	require.True(t, strings.HasSuffix(res.Text, "\n\nPlease confirm: do you want me to place this booking? (yes/no)"))
	return st
}

func TestAdvanceCollectsInOrder(t *testing.T) {
	st := NewState()
	st, res := Advance(st, "")
	require.Equal(t, StageCollecting, st.Stage)
	require.Equal(t, FieldName, st.AwaitingField)
	require.Equal(t, "To get started, what's your full name?", res.Text)

	st, res = Advance(st, "   ")
	require.Equal(t, FieldName, st.AwaitingField)
	require.Equal(t, "I didn't catch that. To get started, what's your full name?", res.Text)
}

func TestAdvanceConfirmVariants(t *testing.T) {
	for _, tok := range []string{"yes", "YES", "y", "Confirm", " sure "} {
		t.Run(tok, func(t *testing.T) {
			st := fillAll(t)
			st, res := Advance(st, tok)
			require.Equal(t, StageCompleted, st.Stage)
			require.True(t, st.Confirmed)
			require.Equal(t, "Great, your booking is confirmed!", res.Text)
			require.Equal(t, &Booking{
				Name:        "Jane Doe",
				Email:       "jane@example.com",
				Phone:       "555-123-4567",
				BookingType: "consultation",
				Date:        "2025-06-01",
				Time:        "14:30",
			}, res.Booking)
		})
	}
}

func TestAdvanceCancelVariants(t *testing.T) {
	for _, tok := range []string{"no", "NO", "n", "Cancel"} {
		t.Run(tok, func(t *testing.T) {
			st := fillAll(t)
			st, res := Advance(st, tok)
			require.Equal(t, StageCancelled, st.Stage)
			require.False(t, st.Confirmed)
			require.Nil(t, res.Booking)
			require.Equal(t, "Okay, I’ve cancelled this booking request. If you’d like to start over, just let me know.", res.Text)

			st2, res := Advance(st, "yes")
			require.Equal(t, st, st2)
			require.Equal(t, "This booking flow has been cancelled. Start a new booking if needed.", res.Text)
		})
	}
}

func TestAdvanceConfirmRepromptKeepsState(t *testing.T) {
	st := fillAll(t)
	next, res := Advance(st, "maybe later")
	require.Equal(t, st, next)
	require.Equal(t, "Please answer with 'yes' to confirm the booking or 'no' to cancel.", res.Text)

	next, res = Advance(st, "")
	require.Equal(t, st, next)
	require.Equal(t, "Please respond with 'yes' to confirm the booking or 'no' to cancel.", res.Text)
}

func TestAdvanceInvalidValueKeepsAwaiting(t *testing.T) {
	st, _ := Advance(NewState(), "")
	st, _ = Advance(st, "Jane")
	require.Equal(t, FieldEmail, st.AwaitingField)

	next, res := Advance(st, "not-an-email")
	require.Equal(t, st, next)
	require.Equal(t, "That email address doesn't look valid. Please enter a valid email (e.g. name@example.com).", res.Text)
}

func TestAdvanceCompletedReplays(t *testing.T) {
	st := fillAll(t)
	st, first := Advance(st, "yes")
	next, res := Advance(st, "anything")
	require.Equal(t, st, next)
	require.Equal(t, "This booking has already been confirmed.", res.Text)
	require.Equal(t, first.Booking, res.Booking)

	broken := st
	broken.Draft.Phone = ""
	_, res = Advance(broken, "again")
	require.Equal(t, "This booking has already been confirmed.", res.Text)
	require.Nil(t, res.Booking)
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	st, _ := Advance(NewState(), "")
	snapshot := st
	_, _ = Advance(st, "Jane")
	require.Equal(t, snapshot, st)
}

func TestAdvanceStoresTrimmedValue(t *testing.T) {
	st, _ := Advance(NewState(), "")
	st, _ = Advance(st, "   Jane Doe  ")
	require.Equal(t, "Jane Doe", st.Draft.Name)
}
