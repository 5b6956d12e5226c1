// Package auth validates presented API keys against stored hashes.
package auth

import (
	"context"
	"fmt"

	"github.com/aruj94/deviceAPI/internal/syncer"
	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Authenticator validates an API key.
type Authenticator interface {
	Validate(ctx context.Context, key string) (bool, error)
}

// Validator checks keys against the API key namespace first and the store second.
// A key found only in the store is written back to the namespace.
type Validator struct {
	engine *syncer.Engine[telemetry.APIKeyRecord]
	coll   telemetry.Collection[telemetry.APIKeyRecord]
	hasher Hasher
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewValidator creates a credential validator.
func NewValidator(
	engine *syncer.Engine[telemetry.APIKeyRecord],
	coll telemetry.Collection[telemetry.APIKeyRecord],
	hasher Hasher,
	clock clockwork.Clock,
	logger *zap.Logger,
) *Validator {
	return &Validator{
		engine: engine,
		coll:   coll,
		hasher: hasher,
		clock:  clock,
		logger: logger,
	}
}

// Validate reports whether key matches an unexpired stored hash. Cache failures fall
// back to the store; store failures are returned as errors.
func (v *Validator) Validate(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	cached, warm, err := v.engine.Snapshot(ctx)
	if err != nil {
		v.logger.Warn("api key cache unavailable, checking store", zap.Error(err))
	}

	if warm {
		if rec, ok := v.match(cached, key); ok {
			return !rec.Expired(v.clock.Now()), nil
		}
	}

	for rec, err := range syncer.Records(ctx, v.coll, v.engine.PageSize()) {
		if err != nil {
			return false, fmt.Errorf("validate api key: %w", err)
		}

		if !v.hasher.Compare(rec.Data, key) {
			continue
		}

		if rec.Expired(v.clock.Now()) {
			return false, nil
		}

		if err := v.engine.Append(ctx, rec); err != nil {
			v.logger.Warn("api key write-back failed", zap.Error(err))
		}

		return true, nil
	}

	return false, nil
}

func (v *Validator) match(candidates []telemetry.APIKeyRecord, key string) (telemetry.APIKeyRecord, bool) {
	for _, rec := range candidates {
		if v.hasher.Compare(rec.Data, key) {
			return rec, true
		}
	}

	return telemetry.APIKeyRecord{}, false
}

// Compile-time check.
var _ Authenticator = (*Validator)(nil)
