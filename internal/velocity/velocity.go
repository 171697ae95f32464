// Package velocity maintains per-user rolling counts and amount sums
// across the 5-minute, 1-hour, and 24-hour windows (spec component C6),
// and refreshes the bounded per-user/per-merchant transaction cache
// lists used for pattern analysis.
//
// Grounded on original_source/RedisService.java's incrementCounter and
// list-trim methods, and the teacher's redis_functions.go
// updateFraudInRedis read-modify-write shape.
package velocity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fraudscorer/streaming-scorer/internal/models"
	"github.com/fraudscorer/streaming-scorer/internal/stateclient"
)

const (
	userCacheCapacity     = 100
	merchantCacheCapacity = 500
)

var allWindows = []models.VelocityWindow{models.Velocity5Min, models.Velocity1Hour, models.Velocity24Hour}

// Updater performs the read-modify-write velocity update for every
// scored transaction.
type Updater struct {
	store *stateclient.Client
}

func New(store *stateclient.Client) *Updater {
	return &Updater{store: store}
}

// Update folds txn into each velocity window and refreshes the
// transaction-cache lists. Failures are logged by the caller and are
// non-fatal (VelocityWriteFailure in the error-handling table): a
// failed write simply leaves that window's counter stale until the
// next successful update.
func (u *Updater) Update(ctx context.Context, txn *models.Transaction) error {
	var firstErr error
	for _, w := range allWindows {
		if err := u.updateWindow(ctx, txn, w); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	entry := fmt.Sprintf("%s:%f:%d", txn.TransactionID, txn.Amount, txn.Timestamp.UnixMilli())

	userKey := stateclient.UserTransactionsPrefix + txn.UserID
	if err := u.store.ListPushFront(ctx, userKey, entry); err == nil {
		u.store.ListTrim(ctx, userKey, userCacheCapacity)
		u.store.Expire(ctx, userKey, stateclient.TransactionTTL)
	} else if firstErr == nil {
		firstErr = err
	}

	merchantKey := stateclient.MerchantTransactionsPrefix + txn.MerchantID
	if err := u.store.ListPushFront(ctx, merchantKey, entry); err == nil {
		u.store.ListTrim(ctx, merchantKey, merchantCacheCapacity)
		u.store.Expire(ctx, merchantKey, stateclient.TransactionTTL)
	} else if firstErr == nil {
		firstErr = err
	}

	return firstErr
}

func (u *Updater) updateWindow(ctx context.Context, txn *models.Transaction, w models.VelocityWindow) error {
	key := stateclient.VelocityPrefix + txn.UserID + ":" + string(w)
	ttl := models.VelocityWindowDuration(w)

	existing, err := u.store.GetHash(ctx, key)
	if err != nil {
		return err
	}

	var count int64
	var amount float64
	if v, ok := existing["count"]; ok {
		count, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := existing["amount"]; ok {
		amount, _ = strconv.ParseFloat(v, 64)
	}

	count++
	amount += txn.Amount

	fields := map[string]string{
		"count":     strconv.FormatInt(count, 10),
		"amount":    strconv.FormatFloat(amount, 'f', -1, 64),
		"timestamp": strconv.FormatInt(time.Now().UTC().UnixMilli(), 10),
	}
	return u.store.SetHash(ctx, key, fields, ttl)
}
