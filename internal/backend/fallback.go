package backend

import (
	"context"

	"go.uber.org/zap"

	"github.com/soaringjerry/Echoform/internal/services"
)

// tryCandidates sends the request to each path in order and stops at the
// first success. An unauthorized answer ends the probe at once; any other
// failure moves on. When every candidate fails the last error is returned.
func (c *Client) tryCandidates(ctx context.Context, method string, paths []string, body, out any) error {
	if len(paths) == 0 {
		return services.NewInvalidError("no endpoint configured")
	}
	var lastErr error
	for i, p := range paths {
		err := c.do(ctx, method, p, body, out)
		if err == nil {
			if i > 0 {
				c.log.Info("fallback endpoint succeeded", zap.String("path", p), zap.Int("attempt", i+1))
			}
			return nil
		}
		if services.IsUnauthorized(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		c.log.Debug("endpoint candidate failed", zap.String("path", p), zap.Error(err))
		lastErr = err
	}
	return lastErr
}
