package telemetry_test

import (
	"testing"
	"time"

	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/stretchr/testify/assert"
)

func TestAPIKeyRecord_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("expiration equal to now is expired", func(t *testing.T) {
		rec := telemetry.APIKeyRecord{ExpirationTimestamp: now}

		assert.True(t, rec.Expired(now))
	})

	t.Run("one second before expiration is valid", func(t *testing.T) {
		rec := telemetry.APIKeyRecord{ExpirationTimestamp: now}

		assert.False(t, rec.Expired(now.Add(-time.Second)))
	})

	t.Run("past expiration is expired", func(t *testing.T) {
		rec := telemetry.APIKeyRecord{ExpirationTimestamp: now.Add(-time.Hour)}

		assert.True(t, rec.Expired(now))
	})
}

func TestClasses(t *testing.T) {
	errClass := telemetry.ErrorRecordClass("errors")
	keyClass := telemetry.APIKeyClass("keys")

	assert.Equal(t, telemetry.KindErrorRecord, errClass.Kind)
	assert.Equal(t, 86400*time.Second, errClass.TTL)
	assert.Equal(t, "errors", errClass.Namespace)

	assert.Equal(t, telemetry.KindAPIKey, keyClass.Kind)
	assert.Equal(t, 43200*time.Second, keyClass.TTL)
	assert.Equal(t, "api_key", keyClass.Kind.String())
}
