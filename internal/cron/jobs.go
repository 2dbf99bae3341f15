package cronrunner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/assets"
)

// SweepStaging deletes staged uploads that outlived ttl, e.g. after a crash mid-upload.
func SweepStaging(stager assets.Stager, ttl time.Duration, logger *zap.Logger) Job {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		removed, err := stager.Sweep(time.Now(), ttl)
		if err != nil {
			return err
		}
		if removed > 0 && logger != nil {
			logger.Info("staging sweep", zap.Int("removed", removed), zap.String("dir", stager.Dir))
		}
		return nil
	}
}
