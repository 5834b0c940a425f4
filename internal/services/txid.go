package services

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	txidMu   sync.Mutex
	txidLast int64
)

// NextTransactionID returns a short, time-ordered ledger entry identifier:
// the current unix millisecond timestamp rendered in uppercase base36.
// Successive calls within the same millisecond bump the timestamp so IDs
// issued by one process never collide.
func NextTransactionID() string {
	txidMu.Lock()
	defer txidMu.Unlock()

	ms := time.Now().UnixMilli()
	if ms <= txidLast {
		ms = txidLast + 1
	}
	txidLast = ms

	return strings.ToUpper(strconv.FormatInt(ms, 36))
}
