package txn

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)
}

func sampleTransactions(now time.Time) []Transaction {
	return []Transaction{
		{ID: 1, UserName: "Fatima", Type: KindChat, Status: StatusCompleted, Amount: 500, Timestamp: now.Add(-2 * time.Hour)},
		{ID: 2, UserName: "Prasad", Type: KindCall, Status: StatusPending, Amount: 300, Timestamp: now.AddDate(0, 0, -3)},
		{ID: 3, UserName: "Dr. Ram Narayan", Type: KindChat, Status: StatusCompleted, Amount: 900, Timestamp: now.AddDate(0, 0, -20)},
		{ID: 4, UserName: "Ayushi", Type: KindCall, Status: StatusCompleted, Amount: 700, Timestamp: now.AddDate(0, -6, 0)},
		{ID: 5, UserName: "Ram Narayan", Type: KindChat, Status: StatusPending, Amount: 200, Timestamp: now.AddDate(-2, 0, 0)},
	}
}

func ids(transactions []Transaction) []int {
	out := make([]int, 0, len(transactions))
	for _, transaction := range transactions {
		out = append(out, transaction.ID)
	}
	return out
}

func TestFilterByName(t *testing.T) {
	now := fixedNow()
	got := Filter(sampleTransactions(now), "ram", TypeAll, DateAll, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	// Case-insensitive substring, input order preserved.
	if got[0].ID != 3 || got[1].ID != 5 {
		t.Fatalf("unexpected ids %v", ids(got))
	}
}

func TestFilterByType(t *testing.T) {
	now := fixedNow()
	got := Filter(sampleTransactions(now), "", string(KindChat), DateAll, now)
	for _, transaction := range got {
		if transaction.Type != KindChat {
			t.Fatalf("type filter leaked %s entry id=%d", transaction.Type, transaction.ID)
		}
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 chat entries, got %d", len(got))
	}
}

func TestFilterToday(t *testing.T) {
	now := fixedNow()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	got := Filter(sampleTransactions(now), "", TypeAll, DateToday, now)
	for _, transaction := range got {
		if transaction.Timestamp.Before(midnight) {
			t.Fatalf("today filter returned pre-midnight entry id=%d", transaction.ID)
		}
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected ids %v", ids(got))
	}
}

func TestFilterDateRanges(t *testing.T) {
	now := fixedNow()
	cases := []struct {
		dateRange DateRange
		wantIDs   []int
	}{
		{DateWeek, []int{1, 2}},
		{DateMonth, []int{1, 2, 3}},
		{DateYear, []int{1, 2, 3, 4}},
		{DateAll, []int{1, 2, 3, 4, 5}},
	}
	for _, tc := range cases {
		got := Filter(sampleTransactions(now), "", TypeAll, tc.dateRange, now)
		gotIDs := ids(got)
		if len(gotIDs) != len(tc.wantIDs) {
			t.Fatalf("%s: got ids %v, want %v", tc.dateRange, gotIDs, tc.wantIDs)
		}
		for i := range gotIDs {
			if gotIDs[i] != tc.wantIDs[i] {
				t.Fatalf("%s: got ids %v, want %v", tc.dateRange, gotIDs, tc.wantIDs)
			}
		}
	}
}

func TestFilterConjunction(t *testing.T) {
	now := fixedNow()
	list := sampleTransactions(now)

	combined := Filter(list, "ram", string(KindChat), DateMonth, now)

	byName := map[int]bool{}
	for _, transaction := range Filter(list, "ram", TypeAll, DateAll, now) {
		byName[transaction.ID] = true
	}
	byType := map[int]bool{}
	for _, transaction := range Filter(list, "", string(KindChat), DateAll, now) {
		byType[transaction.ID] = true
	}
	byDate := map[int]bool{}
	for _, transaction := range Filter(list, "", TypeAll, DateMonth, now) {
		byDate[transaction.ID] = true
	}

	// Combining filters must equal intersecting the individual id sets.
	for _, transaction := range list {
		inAll := byName[transaction.ID] && byType[transaction.ID] && byDate[transaction.ID]
		inCombined := false
		for _, c := range combined {
			if c.ID == transaction.ID {
				inCombined = true
			}
		}
		if inAll != inCombined {
			t.Fatalf("id %d: intersection says %v, combined filter says %v", transaction.ID, inAll, inCombined)
		}
	}
}

func TestGroupByMonthPartition(t *testing.T) {
	now := fixedNow()
	list := GenerateMock(50, 42, now)

	grouped, order := GroupByMonth(list)

	if len(grouped) != len(order) {
		t.Fatalf("bucket count mismatch: map=%d order=%d", len(grouped), len(order))
	}

	seen := map[int]int{}
	for _, key := range order {
		for _, transaction := range grouped[key] {
			seen[transaction.ID]++
			if got := MonthKey(transaction.Timestamp); got != key {
				t.Fatalf("transaction %d in bucket %q but MonthKey is %q", transaction.ID, key, got)
			}
		}
	}
	// No loss, no duplication.
	if len(seen) != len(list) {
		t.Fatalf("grouped %d distinct ids, want %d", len(seen), len(list))
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("id %d appears %d times", id, count)
		}
	}
}

func TestGroupByMonthBucketOrder(t *testing.T) {
	base := fixedNow()
	list := []Transaction{
		{ID: 1, Timestamp: base},                   // MAR 2025
		{ID: 2, Timestamp: base.AddDate(0, -1, 0)}, // FEB 2025
		{ID: 3, Timestamp: base},                   // MAR 2025 again
		{ID: 4, Timestamp: base.AddDate(-1, 0, 0)}, // MAR 2024
	}
	_, order := GroupByMonth(list)
	want := []string{"MAR 2025", "FEB 2025", "MAR 2024"}
	if len(order) != len(want) {
		t.Fatalf("bucket order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("bucket order %v, want %v", order, want)
		}
	}
}

func TestFormatDisplayDate(t *testing.T) {
	cases := []struct {
		timestamp time.Time
		want      string
	}{
		{time.Date(2025, time.March, 15, 14, 5, 0, 0, time.UTC), "2:05pm, 15th mar'25"},
		{time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), "12:00am, 1th jan'25"},
		{time.Date(2024, time.December, 31, 12, 59, 0, 0, time.UTC), "12:59pm, 31th dec'24"},
		{time.Date(2025, time.August, 3, 9, 7, 0, 0, time.UTC), "9:07am, 3th aug'25"},
	}
	for _, tc := range cases {
		if got := FormatDisplayDate(tc.timestamp); got != tc.want {
			t.Errorf("FormatDisplayDate(%v) = %q, want %q", tc.timestamp, got, tc.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.amount); got != tc.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestTotals(t *testing.T) {
	cases := []struct {
		name         string
		transactions []Transaction
		wantReceived int64
		wantPending  int64
	}{
		{
			name:         "empty",
			transactions: nil,
		},
		{
			name: "mixed",
			transactions: []Transaction{
				{Amount: 500, Status: StatusCompleted},
				{Amount: 300, Status: StatusPending},
				{Amount: 700, Status: StatusCompleted},
				{Amount: 200, Status: StatusPending},
			},
			wantReceived: 1200,
			wantPending:  500,
		},
		{
			name: "all completed",
			transactions: []Transaction{
				{Amount: 100, Status: StatusCompleted},
				{Amount: 900, Status: StatusCompleted},
			},
			wantReceived: 1000,
		},
	}
	for _, tc := range cases {
		received, pending := Totals(tc.transactions)
		if received != tc.wantReceived || pending != tc.wantPending {
			t.Errorf("%s: Totals = (%d, %d), want (%d, %d)", tc.name, received, pending, tc.wantReceived, tc.wantPending)
		}
	}
}

func TestGenerateMockSortedNewestFirst(t *testing.T) {
	now := fixedNow()
	list := GenerateMock(50, 7, now)
	if len(list) != 50 {
		t.Fatalf("expected 50 transactions, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Timestamp.After(list[i-1].Timestamp) {
			t.Fatalf("not sorted newest first at index %d", i)
		}
	}
	for _, transaction := range list {
		if transaction.Amount < 100 || transaction.Amount > 2000 {
			t.Fatalf("amount %d outside mock range", transaction.Amount)
		}
	}
}
