package serializer

import "github.com/mdouchement/todolist/internal/model"

// Todo serializes the render of a todo.
func Todo(m *model.Todo) map[string]any {
	return map[string]any{
		"id":          m.ID,
		"description": m.Description,
		"creator":     nullable(m.Creator),
		"created_at":  utc(m.CreatedAt),
		"finished_at": utc(m.FinishedAt),
		"status":      m.Status(),
	}
}

// Todos serializes the render of todos.
func Todos(m []*model.Todo) []map[string]any {
	todos := make([]map[string]any, len(m))
	for i, t := range m {
		todos[i] = Todo(t)
	}
	return todos
}
