package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/eorder_backend/config"
	"github.com/mmdatafocus/eorder_backend/utils"
	"gorm.io/gorm"
)

const (
	orderLockTTL     = 3 * time.Minute
	orderLockRetry   = 250 * time.Millisecond
	orderLockRetries = 8
)

func orderLockKey(orderId int) string {
	return fmt.Sprintf("order-commit:%d", orderId)
}

// AcquireOrderLock serializes commitment runs per order. Two concurrent
// sagas on one order would race the line-number counter, so callers take
// this lock before Commit and release after. Redis is preferred; when it is
// unavailable a MySQL advisory lock covers single-database deployments.
// Returns utils.ErrorOrderLocked when another run holds the order.
func AcquireOrderLock(ctx context.Context, locker *redislock.Client, db *gorm.DB, orderId int) (release func(), err error) {
	key := orderLockKey(orderId)

	if locker != nil {
		lock, err := locker.Obtain(ctx, key, orderLockTTL, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(orderLockRetry), orderLockRetries),
		})
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, utils.ErrorOrderLocked
		}
		if err != nil {
			return nil, err
		}
		return func() {
			if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
				config.LogError(config.GetLogger(), "workflow", "AcquireOrderLock", key, nil, releaseErr)
			}
		}, nil
	}

	if db == nil {
		return nil, errors.New("no lock backend available")
	}

	var got int
	timeoutSeconds := int(orderLockRetry.Seconds()*float64(orderLockRetries)) + 1
	if err := db.WithContext(ctx).Raw("SELECT GET_LOCK(?, ?)", key, timeoutSeconds).Scan(&got).Error; err != nil {
		return nil, err
	}
	if got != 1 {
		return nil, utils.ErrorOrderLocked
	}
	return func() {
		var released int
		if releaseErr := db.Raw("SELECT RELEASE_LOCK(?)", key).Scan(&released).Error; releaseErr != nil {
			config.LogError(config.GetLogger(), "workflow", "AcquireOrderLock", key, nil, releaseErr)
		}
	}, nil
}
