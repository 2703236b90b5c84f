package engine

import (
	"sort"
	"strconv"

	"github.com/fentz26/tempo/internal/models"
)

// Position is a target for MoveTask: up, down, next, end or a decimal index
// into the pending queue.
type Position string

const (
	PositionUp   Position = "up"
	PositionDown Position = "down"
	PositionNext Position = "next"
	PositionEnd  Position = "end"
)

// IndexPosition returns the position for an explicit pending-queue index.
func IndexPosition(i int) Position {
	return Position(strconv.Itoa(i))
}

// Valid reports whether p is a named position or a non-negative index.
func (p Position) Valid() bool {
	switch p {
	case PositionUp, PositionDown, PositionNext, PositionEnd:
		return true
	}
	i, err := strconv.Atoi(string(p))
	return err == nil && i >= 0
}

// pendingQueue returns indices of pending tasks sorted by order.
func pendingQueue(run *models.RoutineRun) []int {
	var idx []int
	for i := range run.Tasks {
		if run.Tasks[i].Status == models.TaskStatusPending {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return run.Tasks[idx[a]].Order < run.Tasks[idx[b]].Order
	})
	return idx
}

// nextPending returns the index of the lowest-order pending task, or -1.
func nextPending(run *models.RoutineRun) int {
	q := pendingQueue(run)
	if len(q) == 0 {
		return -1
	}
	return q[0]
}

// queuedCount counts pending and active tasks.
func queuedCount(run *models.RoutineRun) int {
	n := 0
	for i := range run.Tasks {
		if run.Tasks[i].Status.Queued() {
			n++
		}
	}
	return n
}

// renumber assigns contiguous orders from 0 to the queue: the active task
// first, then pending tasks in their current relative order. Completed and
// skipped tasks keep their historical order.
func renumber(run *models.RoutineRun) {
	assign(run, pendingQueue(run))
}

// assign numbers the active task 0 and the given pending indices after it.
func assign(run *models.RoutineRun, pending []int) {
	base := 0
	if active := run.ActiveTask(); active != nil {
		active.Order = 0
		base = 1
	}
	for j, i := range pending {
		run.Tasks[i].Order = base + j
	}
}

func moveTask(run models.RoutineRun, id string, pos Position) (models.RoutineRun, bool) {
	if run.Status.Terminal() {
		return run, false
	}
	i := run.TaskIndex(id)
	if i < 0 || run.Tasks[i].Status != models.TaskStatusPending {
		return run, false
	}

	queue := pendingQueue(&run)
	from := 0
	for k, idx := range queue {
		if idx == i {
			from = k
			break
		}
	}

	to := from
	switch pos {
	case PositionUp:
		to = from - 1
	case PositionDown:
		to = from + 1
	case PositionNext:
		to = 0
	case PositionEnd:
		to = len(queue) - 1
	default:
		n, err := strconv.Atoi(string(pos))
		if err != nil || n < 0 {
			return run, false
		}
		to = n
	}
	if to < 0 || (pos == PositionDown && to >= len(queue)) {
		return run, false
	}
	// Explicit indices past the tail clamp to the last slot.
	if to >= len(queue) {
		to = len(queue) - 1
	}
	if to == from {
		return run, false
	}

	reordered := make([]int, 0, len(queue))
	reordered = append(reordered, queue[:from]...)
	reordered = append(reordered, queue[from+1:]...)
	reordered = append(reordered[:to], append([]int{i}, reordered[to:]...)...)

	next := run.Clone()
	assign(&next, reordered)
	return next, true
}
