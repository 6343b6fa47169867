package models_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ctrlbench/ctrlbench/internal/models"
)

func TestErrorClassHelpers(t *testing.T) {
	assert.True(t, models.IsTransient(models.Transientf("timeout")))
	assert.False(t, models.IsPermanent(models.Transientf("timeout")))

	assert.True(t, models.IsPermanent(models.Permanentf("bad config")))
	assert.False(t, models.IsTransient(models.Permanentf("bad config")))

	// Unknown error kinds are not retryable.
	assert.False(t, models.IsTransient(fmt.Errorf("mystery")))

	// Classification survives wrapping.
	wrapped := fmt.Errorf("plan phase: %w", models.Transientf("rate limited"))
	assert.True(t, models.IsTransient(wrapped))

	assert.Nil(t, models.Transient(nil))
	assert.Nil(t, models.Permanent(nil))
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want models.ErrorType
	}{
		{"nil", nil, ""},
		{"transient", models.Transientf("timeout"), models.ErrTypeTransient},
		{"permanent", models.Permanentf("bad"), models.ErrTypePermanent},
		{"exhausted", &models.RetryExhaustedError{Attempts: 3, Err: models.Transientf("timeout")}, models.ErrTypeRetryExhausted},
		{"resolution", &models.ResolutionError{ControllerType: "ghost"}, models.ErrTypeUnresolved},
		{"cancelled", context.Canceled, models.ErrTypeCancelled},
		{"deadline", context.DeadlineExceeded, models.ErrTypeCancelled},
		{"unknown", fmt.Errorf("mystery"), models.ErrTypeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, models.ClassifyError(tc.err))
		})
	}
}

func TestNewResultError(t *testing.T) {
	assert.Nil(t, models.NewResultError(nil))

	re := models.NewResultError(&models.RetryExhaustedError{Attempts: 3, Err: models.Transientf("timeout")})
	assert.Equal(t, models.ErrTypeRetryExhausted, re.Type)
	assert.Contains(t, re.Message, "retries exhausted after 3 attempts")
}

func TestResolutionErrorMessage(t *testing.T) {
	err := &models.ResolutionError{ControllerType: "ghost"}
	assert.Equal(t, "unknown controller type: ghost", err.Error())
}
