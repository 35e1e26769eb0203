package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// pagedSource serves total items in pages of pageSize and counts calls.
func pagedSource(total, pageSize int, calls *int) PageFunc[string] {
	return func(ctx context.Context, page int) ([]string, error) {
		*calls++
		start := (page - 1) * pageSize
		var items []string
		for i := start; i < total && i < start+pageSize; i++ {
			items = append(items, fmt.Sprintf("item-%02d", i))
		}
		return items, nil
	}
}

func TestWalk_StopsOnShortPage(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		wantCalls int
	}{
		{name: "empty", total: 0, wantCalls: 1},
		{name: "single short page", total: 7, wantCalls: 1},
		{name: "two pages", total: 13, wantCalls: 2},
		{name: "25 items", total: 25, wantCalls: 3},
		// Exact multiple of the page size costs one extra empty request.
		{name: "exact multiple", total: 20, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			items, err := Walk(context.Background(), DefaultPageSize, pagedSource(tt.total, DefaultPageSize, &calls))
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if len(items) != tt.total {
				t.Errorf("len(items) = %d, want %d", len(items), tt.total)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestWalk_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(ctx context.Context, page int) ([]int, error) {
		if page == 2 {
			return nil, boom
		}
		return make([]int, DefaultPageSize), nil
	}

	items, err := Walk(context.Background(), DefaultPageSize, fetch)
	if !errors.Is(err, boom) {
		t.Fatalf("Walk() error = %v, want boom", err)
	}
	if items != nil {
		t.Errorf("items should be nil on error, got %d", len(items))
	}
}

func TestWalk_PageLimit(t *testing.T) {
	fetch := func(ctx context.Context, page int) ([]int, error) {
		return make([]int, 1), nil
	}

	_, err := Walk(context.Background(), 1, fetch)
	if !errors.Is(err, ErrPageLimit) {
		t.Errorf("Walk() error = %v, want ErrPageLimit", err)
	}
}

func TestWalk_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Walk(ctx, DefaultPageSize, pagedSource(5, DefaultPageSize, &calls))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Walk() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestChunk(t *testing.T) {
	items := make([]string, 25)
	for i := range items {
		items[i] = fmt.Sprintf("o%d", i)
	}

	batches := Chunk(items, 10)
	if len(batches) != 3 {
		t.Fatalf("len(batches) = %d, want 3", len(batches))
	}
	wantSizes := []int{10, 10, 5}
	for i, b := range batches {
		if len(b) != wantSizes[i] {
			t.Errorf("batch %d size = %d, want %d", i, len(b), wantSizes[i])
		}
	}
	if batches[2][0] != "o20" || batches[2][4] != "o24" {
		t.Errorf("last batch = %v", batches[2])
	}

	// Appending to a batch must not clobber the next one.
	_ = append(batches[0], "extra")
	if batches[1][0] != "o10" {
		t.Error("batches alias each other")
	}

	if got := Chunk([]string{}, 10); got != nil {
		t.Errorf("Chunk(empty) = %v, want nil", got)
	}
	if got := Chunk([]string{"a", "b"}, 0); len(got) != 1 {
		t.Errorf("Chunk with size 0 should fall back to DefaultPageSize, got %d batches", len(got))
	}
}
