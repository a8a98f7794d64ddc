package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunHealthChecks(t *testing.T) {
	status := RunHealthChecks(context.Background(), map[string]HealthCheck{
		"mongo": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("down") },
	})
	assert.False(t, status.Healthy())
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, status, GetHealthStatus())

	status = RunHealthChecks(context.Background(), map[string]HealthCheck{
		"mongo": func(context.Context) error { return nil },
	})
	assert.True(t, status.Healthy())
	assert.Equal(t, "ok", status.Status)
}
