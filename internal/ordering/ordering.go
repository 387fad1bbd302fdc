// Package ordering holds the rules for the dense per-milestone task order.
//
// Within a milestone the order values of its tasks always form 0..n-1 after a
// reorder. A reorder request must name every task of the milestone exactly once.
package ordering

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch = errors.New("task list does not match milestone size")
	ErrDuplicateTask  = errors.New("task listed more than once")
	ErrForeignTask    = errors.New("task does not belong to milestone")
)

// Assignment is the new position of one task.
type Assignment struct {
	TaskID int64
	Order  int
}

// ValidatePermutation checks that requested is a permutation of current.
func ValidatePermutation(current, requested []int64) error {
	if len(current) != len(requested) {
		return fmt.Errorf("%w: milestone has %d tasks, got %d", ErrLengthMismatch, len(current), len(requested))
	}

	members := make(map[int64]struct{}, len(current))
	for _, id := range current {
		members[id] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(requested))
	for _, id := range requested {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateTask, id)
		}
		seen[id] = struct{}{}

		if _, ok := members[id]; !ok {
			return fmt.Errorf("%w: %d", ErrForeignTask, id)
		}
	}
	return nil
}

// Assign maps each task to its zero-based index in requested.
func Assign(requested []int64) []Assignment {
	out := make([]Assignment, len(requested))
	for i, id := range requested {
		out[i] = Assignment{TaskID: id, Order: i}
	}
	return out
}

// NoTasks is the maximum order of an empty milestone.
const NoTasks = -1

// AppendOrder is the order of a task placed after every task of a milestone
// whose highest order is maxOrder. On a dense milestone it equals the task count;
// after a move-out left a gap it still lands past the last task.
func AppendOrder(maxOrder int) int {
	if maxOrder < NoTasks {
		maxOrder = NoTasks
	}
	return maxOrder + 1
}

// MaxOrder returns the highest of orders, or NoTasks when there are none.
func MaxOrder(orders []int) int {
	m := NoTasks
	for _, o := range orders {
		if o > m {
			m = o
		}
	}
	return m
}
