package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveLLMCall(t *testing.T) {
	success := LLMCalls.WithLabelValues("metrics_test", ResultSuccess)
	failure := LLMCalls.WithLabelValues("metrics_test", ResultError)
	beforeSuccess := testutil.ToFloat64(success)
	beforeFailure := testutil.ToFloat64(failure)

	ObserveLLMCall("metrics_test", time.Now(), nil)
	ObserveLLMCall("metrics_test", time.Now(), nil)
	ObserveLLMCall("metrics_test", time.Now(), errors.New("boom"))

	assert.Equal(t, beforeSuccess+2, testutil.ToFloat64(success))
	assert.Equal(t, beforeFailure+1, testutil.ToFloat64(failure))
}
