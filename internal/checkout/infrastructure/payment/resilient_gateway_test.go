package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/trainly/internal/checkout/domain"
)

type scriptedGateway struct {
	m       sync.Mutex
	charges int
	// 每次调用依次返回的错误，耗尽后成功
	script []error
}

func (g *scriptedGateway) Charge(_ context.Context, amount decimal.Decimal, method string) (string, error) {
	g.m.Lock()
	defer g.m.Unlock()
	g.charges++
	if len(g.script) > 0 {
		err := g.script[0]
		g.script = g.script[1:]
		if err != nil {
			return "", err
		}
	}
	return "FAKE-scripted", nil
}

func testConfig() Config {
	return Config{
		ChargeTimeout: time.Second,
		MaxRetries:    2,
		RetryBackoff:  time.Millisecond,
	}
}

func TestChargeSucceedsFirstAttempt(t *testing.T) {
	inner := &scriptedGateway{}
	gw := NewResilientGateway(inner, testConfig())

	ref, err := gw.Charge(context.Background(), decimal.NewFromInt(10), "card")
	require.NoError(t, err)
	assert.Equal(t, "FAKE-scripted", ref)
	assert.Equal(t, 1, inner.charges)
}

func TestChargeRetriesTransientErrors(t *testing.T) {
	inner := &scriptedGateway{script: []error{
		errors.New("connection reset"),
		errors.New("connection reset"),
	}}
	gw := NewResilientGateway(inner, testConfig())

	ref, err := gw.Charge(context.Background(), decimal.NewFromInt(10), "card")
	require.NoError(t, err)
	assert.Equal(t, "FAKE-scripted", ref)
	assert.Equal(t, 3, inner.charges)
}

func TestChargeNeverRetriesAfterDecline(t *testing.T) {
	inner := &scriptedGateway{script: []error{domain.ErrPaymentDeclined}}
	gw := NewResilientGateway(inner, testConfig())

	_, err := gw.Charge(context.Background(), decimal.NewFromInt(10), "card")
	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
	assert.Equal(t, 1, inner.charges)
}

func TestChargeExhaustedRetriesReportsUnavailable(t *testing.T) {
	inner := &scriptedGateway{script: []error{
		errors.New("timeout"),
		errors.New("timeout"),
		errors.New("timeout"),
	}}
	gw := NewResilientGateway(inner, testConfig())

	_, err := gw.Charge(context.Background(), decimal.NewFromInt(10), "card")
	assert.ErrorIs(t, err, domain.ErrPaymentUnavailable)
	assert.Equal(t, 3, inner.charges)
}

func TestSimulatedGatewayApprovesWithFakeRef(t *testing.T) {
	gw := NewSimulatedGateway()

	ref, err := gw.Charge(context.Background(), decimal.NewFromFloat(30.50), "card")
	require.NoError(t, err)
	assert.Contains(t, ref, "FAKE-")
}
