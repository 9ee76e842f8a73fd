package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/logger"
)

type countingClearer struct {
	calls int
	err   error
}

func (c *countingClearer) Clear(_ context.Context, _ string) error {
	c.calls++
	return c.err
}

func newConfirmer(gw *fakeGateway, clearer *countingClearer) *Confirmer {
	return NewConfirmer(gw, NewMemoryLedger(), clearer, logger.Discard())
}

func TestConfirm_NoReferences(t *testing.T) {
	clearer := &countingClearer{}
	c := newConfirmer(&fakeGateway{}, clearer)

	result, err := c.Confirm(context.Background(), &ConfirmationRequest{CartSessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, StatusUnverified, result.Status)
	assert.False(t, result.Cleared)
	assert.Zero(t, clearer.calls)
}

func TestConfirm_PaidSessionClearsOnce(t *testing.T) {
	clearer := &countingClearer{}
	gw := &fakeGateway{sessionStatus: map[string]payment.Status{"cs_1": payment.StatusPaid}}
	c := newConfirmer(gw, clearer)

	req := &ConfirmationRequest{CartSessionID: "s1", SessionID: "cs_1"}
	first, err := c.Confirm(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, &Confirmation{Status: StatusPaid, Cleared: true}, first)

	second, err := c.Confirm(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, &Confirmation{Status: StatusPaid, Cleared: false}, second)
	assert.Equal(t, 1, clearer.calls)
}

func TestConfirm_UnpaidKeepsCart(t *testing.T) {
	clearer := &countingClearer{}
	gw := &fakeGateway{
		sessionStatus: map[string]payment.Status{"cs_1": payment.StatusUnpaid},
		intentStatus:  map[string]payment.Status{"pi_1": payment.StatusProcessing},
	}
	c := newConfirmer(gw, clearer)

	result, err := c.Confirm(context.Background(), &ConfirmationRequest{CartSessionID: "s1", SessionID: "cs_1"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status)

	result, err = c.Confirm(context.Background(), &ConfirmationRequest{CartSessionID: "s1", PaymentIntentID: "pi_1"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status)
	assert.Zero(t, clearer.calls)
}

func TestConfirm_SucceededIntent(t *testing.T) {
	clearer := &countingClearer{}
	gw := &fakeGateway{intentStatus: map[string]payment.Status{"pi_1": payment.StatusPaid}}
	c := newConfirmer(gw, clearer)

	result, err := c.Confirm(context.Background(), &ConfirmationRequest{CartSessionID: "s1", PaymentIntentID: "pi_1"})
	require.NoError(t, err)
	assert.True(t, result.Cleared)
	assert.Equal(t, 1, clearer.calls)
}

func TestConfirm_UnknownReference(t *testing.T) {
	clearer := &countingClearer{}
	c := newConfirmer(&fakeGateway{}, clearer)

	result, err := c.Confirm(context.Background(), &ConfirmationRequest{CartSessionID: "s1", SessionID: "cs_forged"})
	require.NoError(t, err)
	assert.Equal(t, StatusUnverified, result.Status)
	assert.Zero(t, clearer.calls)
}

func TestConfirm_ProviderError(t *testing.T) {
	c := newConfirmer(&fakeGateway{err: errors.New("timeout")}, &countingClearer{})

	_, err := c.Confirm(context.Background(), &ConfirmationRequest{SessionID: "cs_1"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindProvider))
}

func TestConfirm_ClearFailureAllowsRetry(t *testing.T) {
	clearer := &countingClearer{err: errors.New("redis down")}
	gw := &fakeGateway{sessionStatus: map[string]payment.Status{"cs_1": payment.StatusPaid}}
	c := newConfirmer(gw, clearer)

	req := &ConfirmationRequest{CartSessionID: "s1", SessionID: "cs_1"}
	_, err := c.Confirm(context.Background(), req)
	require.Error(t, err)

	clearer.err = nil
	result, err := c.Confirm(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Cleared)
	assert.Equal(t, 2, clearer.calls)
}

func TestRedisLedger(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ledger := NewRedisLedger(client, time.Hour)
	ctx := context.Background()

	first, err := ledger.MarkOnce(ctx, "cs:1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := ledger.MarkOnce(ctx, "cs:1")
	require.NoError(t, err)
	assert.False(t, again)
	assert.Equal(t, time.Hour, mr.TTL("checkout:confirmed:cs:1"))

	require.NoError(t, ledger.Unmark(ctx, "cs:1"))
	first, err = ledger.MarkOnce(ctx, "cs:1")
	require.NoError(t, err)
	assert.True(t, first)
}
