package projection

import "github.com/sandeepkv93/flow/internal/model"

// List returns the tasks in store order (newest first).
func List(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	return out
}

type Column struct {
	Status model.Status
	Tasks  []model.Task
}

// Board groups tasks into one column per status, keeping store order within
// each column.
func Board(tasks []model.Task) []Column {
	cols := make([]Column, len(model.Statuses))
	for i, status := range model.Statuses {
		cols[i] = Column{Status: status, Tasks: []model.Task{}}
	}
	for _, task := range tasks {
		for i := range cols {
			if cols[i].Status == task.Status {
				cols[i].Tasks = append(cols[i].Tasks, task)
				break
			}
		}
	}
	return cols
}

// ColumnIndex returns the board column for status, or -1.
func ColumnIndex(status model.Status) int {
	for i, s := range model.Statuses {
		if s == status {
			return i
		}
	}
	return -1
}
