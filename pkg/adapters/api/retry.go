package api

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/chainhub/pkg/core/domain"
)

// RetryNetwork runs op until it succeeds, fails with anything other than a
// *domain.NetworkError, or maxElapsed passes. Only use it for idempotent reads.
func RetryNetwork(ctx context.Context, maxElapsed time.Duration, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = maxElapsed

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !domain.IsNetwork(err) {
			return backoff.Permanent(err)
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("retrying after network error")
		return err
	}, backoff.WithContext(b, ctx))
}
