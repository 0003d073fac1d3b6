package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

func TestNewResource(t *testing.T) {
	t.Run("carries the service name attribute", func(t *testing.T) {
		res, err := newResource("movewatch-test")
		require.NoError(t, err)
		require.NotNil(t, res)

		found := false
		for _, attr := range res.Attributes() {
			if attr.Key == semconv.ServiceNameKey {
				assert.Equal(t, "movewatch-test", attr.Value.AsString())
				found = true
				break
			}
		}
		assert.True(t, found, "service name attribute not found in resource")
	})

	t.Run("accepts an empty service name", func(t *testing.T) {
		res, err := newResource("")
		require.NoError(t, err)
		assert.NotNil(t, res)
	})
}

func TestLoggerProvider(t *testing.T) {
	t.Run("is nil until telemetry is initialized", func(t *testing.T) {
		assert.Nil(t, LoggerProvider())
	})
}
