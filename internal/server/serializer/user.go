package serializer

import "github.com/mdouchement/todolist/internal/model"

// User serializes the render of a user.
func User(m *model.User, todolistCount int, base string) map[string]any {
	return map[string]any{
		"username":       m.Username,
		"user_url":       m.UserURL(base),
		"member_since":   utc(m.CreatedAt),
		"last_seen":      utc(m.LastSeen),
		"todolists":      m.TodoListsURL(base),
		"todolist_count": todolistCount,
		"is_admin":       m.Admin,
	}
}
