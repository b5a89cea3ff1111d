package cache

import (
	"context"
	"errors"
	"fmt"
	"net"

	"decihire/internal/model"

	"github.com/redis/go-redis/v9"
)

// cacheErr wraps a redis error; connectivity failures become StoreUnavailableError
func cacheErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &model.StoreUnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
