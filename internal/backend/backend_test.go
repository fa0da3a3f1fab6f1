package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremevalue/research-kit/internal/domain"
)

func sampleRequest() SubmitRequest {
	return SubmitRequest{
		CodeHash:   "abc123",
		Code:       "sma crossover",
		Instrument: []string{"SPY"},
		Range: domain.DateRange{
			Start: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Seed: 42,
	}
}

func TestSubmit_SameInputs_DeterministicOutput(t *testing.T) {
	stub := LocalStub{}
	r1, err := stub.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	r2, err := stub.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, r1.Metrics, r2.Metrics)
	assert.Equal(t, r1.BackendRef, r2.BackendRef)
}

func TestSubmit_DifferentSeed_DifferentOutput(t *testing.T) {
	stub := LocalStub{}
	r1, err := stub.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)

	req2 := sampleRequest()
	req2.Seed = 43
	r2, err := stub.Submit(context.Background(), req2)
	require.NoError(t, err)

	assert.NotEqual(t, r1.Metrics, r2.Metrics)
}

func TestSubmit_DifferentCodeHash_DifferentOutput(t *testing.T) {
	stub := LocalStub{}
	r1, err := stub.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)

	req2 := sampleRequest()
	req2.CodeHash = "def456"
	r2, err := stub.Submit(context.Background(), req2)
	require.NoError(t, err)

	assert.NotEqual(t, r1.Metrics, r2.Metrics)
}

func TestSubmit_CancelledContext_ReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LocalStub{}.Submit(ctx, sampleRequest())
	assert.Error(t, err)
}

func TestSubmit_SharpeDerivedFromCAGROverVol(t *testing.T) {
	stub := LocalStub{}
	result, err := stub.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	expected := result.Metrics.CAGR / result.Metrics.Volatility
	assert.InDelta(t, expected, result.Metrics.Sharpe, 1e-9)
}
