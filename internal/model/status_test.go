package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusCompleted, StatusCancelled, StatusReturned} {
		require.True(t, s.Valid(), s)
	}
	require.False(t, OrderStatus("delivered").Valid())
	require.False(t, OrderStatus("").Valid())
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusConfirmed))
	require.True(t, CanTransition(StatusShipped, StatusReturned))
	require.True(t, CanTransition(StatusCancelled, StatusCancelled))
	require.False(t, CanTransition(StatusCancelled, StatusPending))
	require.False(t, CanTransition(StatusCompleted, StatusPending))
	require.False(t, CanTransition(StatusPending, StatusShipped))
}

func TestTerminal(t *testing.T) {
	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusReturned.Terminal())
	require.False(t, StatusShipped.Terminal())
}

func TestPaymentEnums(t *testing.T) {
	require.True(t, MethodCrypto.Valid())
	require.True(t, MethodPending.Valid())
	require.False(t, PaymentMethod("paypal").Valid())

	require.True(t, PaymentExpired.Valid())
	require.False(t, PaymentStatus("finished").Valid())
}
