package pagination

import (
	"context"
	"errors"
	"testing"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{name: "zero uses default", input: 0, want: DefaultLimit},
		{name: "negative uses default", input: -3, want: DefaultLimit},
		{name: "within bounds", input: 120, want: 120},
		{name: "above max", input: 10_000, want: MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLimit(tt.input); got != tt.want {
				t.Fatalf("ClampLimit(%d) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCollectFollowsCursors(t *testing.T) {
	pages := map[string]Page[int]{
		"":   {Items: []int{1, 2}, Next: "c1"},
		"c1": {Items: []int{3}, Next: "c2"},
		"c2": {Items: []int{4}},
	}
	var seen []string
	items, err := Collect(context.Background(), 0, func(ctx context.Context, cursor string) (Page[int], error) {
		seen = append(seen, cursor)
		return pages[cursor], nil
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 4 || items[3] != 4 {
		t.Fatalf("items = %v", items)
	}
	if len(seen) != 3 || seen[1] != "c1" || seen[2] != "c2" {
		t.Fatalf("cursors = %v", seen)
	}
}

func TestCollectStopsAtLimit(t *testing.T) {
	calls := 0
	items, err := Collect(context.Background(), 3, func(ctx context.Context, cursor string) (Page[int], error) {
		calls++
		return Page[int]{Items: []int{calls, calls}, Next: "more"}, nil
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(items) != 3 || calls != 2 {
		t.Fatalf("items = %v after %d calls", items, calls)
	}
}

func TestCollectStopsOnRepeatedCursorAndMaxPages(t *testing.T) {
	calls := 0
	_, err := Collect(context.Background(), MaxLimit, func(ctx context.Context, cursor string) (Page[int], error) {
		calls++
		return Page[int]{Items: []int{1}, Next: "same"}, nil
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected stop on repeated cursor, got %d calls", calls)
	}

	calls = 0
	_, _ = Collect(context.Background(), MaxLimit, func(ctx context.Context, cursor string) (Page[int], error) {
		calls++
		return Page[int]{Next: NextPage(PageNumber(cursor), 1000)}, nil
	})
	if calls != MaxPages {
		t.Fatalf("calls = %d, want %d", calls, MaxPages)
	}
}

func TestCollectPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Collect(context.Background(), 0, func(ctx context.Context, cursor string) (Page[int], error) {
		if cursor == "" {
			return Page[int]{Items: []int{1}, Next: "x"}, nil
		}
		return Page[int]{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Collect(ctx, 0, func(ctx context.Context, cursor string) (Page[int], error) {
		return Page[int]{}, nil
	}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestPageNumbers(t *testing.T) {
	if PageNumber("") != 1 || PageNumber("x") != 1 || PageNumber("3") != 3 {
		t.Fatal("unexpected page number parsing")
	}
	if NextPage(1, 3) != "2" || NextPage(3, 3) != "" || NextPage(1, 0) != "" {
		t.Fatal("unexpected next page")
	}
}
