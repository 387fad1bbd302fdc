package ordering

import (
	"errors"
	"testing"
)

func TestValidatePermutation(t *testing.T) {
	current := []int64{10, 11, 12}

	tests := []struct {
		name      string
		requested []int64
		wantErr   error
	}{
		{"same order", []int64{10, 11, 12}, nil},
		{"rotated", []int64{12, 10, 11}, nil},
		{"too short", []int64{10, 11}, ErrLengthMismatch},
		{"too long", []int64{10, 11, 12, 13}, ErrLengthMismatch},
		{"duplicate", []int64{10, 10, 12}, ErrDuplicateTask},
		{"foreign task", []int64{10, 11, 99}, ErrForeignTask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePermutation(current, tt.requested)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePermutationEmpty(t *testing.T) {
	if err := ValidatePermutation(nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAssign(t *testing.T) {
	// A=1 B=2 C=3 reordered as [C, A, B]
	got := Assign([]int64{3, 1, 2})
	want := map[int64]int{3: 0, 1: 1, 2: 2}

	if len(got) != len(want) {
		t.Fatalf("got %d assignments, want %d", len(got), len(want))
	}
	orders := make([]int, 0, len(got))
	for _, a := range got {
		if want[a.TaskID] != a.Order {
			t.Errorf("task %d: got order %d, want %d", a.TaskID, a.Order, want[a.TaskID])
		}
		orders = append(orders, a.Order)
	}
	if !isDense(orders) {
		t.Errorf("orders %v are not dense", orders)
	}
}

func TestAppendOrder(t *testing.T) {
	tests := []struct {
		name   string
		orders []int
		want   int
	}{
		{"empty milestone", nil, 0},
		{"dense", []int{0, 1, 2, 3}, 4},
		// B moved out of [A B C]
		{"gap left by move-out", []int{0, 2}, 3},
		{"unsorted", []int{5, 1, 3}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppendOrder(MaxOrder(tt.orders))
			if got != tt.want {
				t.Fatalf("AppendOrder(MaxOrder(%v)) = %d, want %d", tt.orders, got, tt.want)
			}
			for _, o := range tt.orders {
				if o == got {
					t.Fatalf("append order %d collides with %v", got, tt.orders)
				}
			}
		})
	}
}

func TestAppendOrderClampsBelowEmpty(t *testing.T) {
	if got := AppendOrder(-7); got != 0 {
		t.Errorf("AppendOrder(-7) = %d, want 0", got)
	}
}

func isDense(orders []int) bool {
	seen := make([]bool, len(orders))
	for _, o := range orders {
		if o < 0 || o >= len(orders) || seen[o] {
			return false
		}
		seen[o] = true
	}
	return true
}
