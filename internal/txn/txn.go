// Package txn holds the transaction model and the client-side
// search/filter/grouping logic behind the earnings and transaction list
// screens.
package txn

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"
)

// Kind is the consultation type behind a transaction.
type Kind string

const (
	KindChat Kind = "chat"
	KindCall Kind = "call"
)

// Status is the settlement state of a transaction.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
)

// Transaction is one earnings entry. Immutable once loaded; filtering and
// grouping never mutate.
type Transaction struct {
	ID        int       `json:"id"`
	UserName  string    `json:"userName"`
	UserImage string    `json:"userImage"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	Type      Kind      `json:"type"`
	Status    Status    `json:"status"`
	Duration  string    `json:"duration"`
	OrderID   string    `json:"orderId"`
}

// SortNewestFirst orders transactions by descending timestamp, the order
// the list screens expect at load time.
func SortNewestFirst(transactions []Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Timestamp.After(transactions[j].Timestamp)
	})
}

// FormatAmount renders a rupee amount with thousands separators, e.g.
// 1234 -> "1,234".
func FormatAmount(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	negative := false
	if len(digits) > 0 && digits[0] == '-' {
		negative = true
		digits = digits[1:]
	}
	if len(digits) <= 3 {
		if negative {
			return "-" + digits
		}
		return digits
	}

	var out []byte
	lead := len(digits) % 3
	if lead > 0 {
		out = append(out, digits[:lead]...)
	}
	for i := lead; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i:i+3]...)
	}
	if negative {
		return "-" + string(out)
	}
	return string(out)
}

var mockNames = []string{
	"Fatima", "Prasad", "Vishwajeet", "Ram Narayan", "Dr. Ram Narayan", "Ayushi",
}

// GenerateMock builds n deterministic mock transactions spread over the
// year before now, sorted newest first. The dashboard screens run on this
// data until the earnings endpoints ship.
func GenerateMock(n int, seed int64, now time.Time) []Transaction {
	rng := rand.New(rand.NewSource(seed))
	kinds := []Kind{KindChat, KindCall}

	transactions := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		timestamp := now.AddDate(0, 0, -rng.Intn(365))
		status := StatusCompleted
		if rng.Float64() <= 0.2 {
			status = StatusPending
		}
		transactions = append(transactions, Transaction{
			ID:        i + 1,
			UserName:  mockNames[rng.Intn(len(mockNames))],
			UserImage: "https://placehold.co/100x100",
			Amount:    int64(rng.Intn(1901) + 100),
			Timestamp: timestamp,
			Type:      kinds[rng.Intn(len(kinds))],
			Status:    status,
			Duration:  fmt.Sprintf("%d minutes", rng.Intn(56)+5),
			OrderID:   fmt.Sprintf("#%013d", rng.Int63n(1e13)),
		})
	}

	SortNewestFirst(transactions)
	return transactions
}
