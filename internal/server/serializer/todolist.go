package serializer

import "github.com/mdouchement/todolist/internal/model"

// Counts are the todo counters of a todolist.
type Counts struct {
	Total    int
	Open     int
	Finished int
}

// TodoList serializes the render of a todolist.
func TodoList(m *model.TodoList, counts Counts, base string) map[string]any {
	return map[string]any{
		"id":                  m.ID,
		"title":               m.Title,
		"creator":             nullable(m.Creator),
		"created_at":          utc(m.CreatedAt),
		"total_todo_count":    counts.Total,
		"open_todo_count":     counts.Open,
		"finished_todo_count": counts.Finished,
		"todos":               m.TodosURL(base),
	}
}
