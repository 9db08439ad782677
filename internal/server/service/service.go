package service

import "github.com/mdouchement/todolist/internal/model"

type (
	// M is an arbitrary map.
	M map[string]any

	// A Render is an arbitrary payload serializable in JSON by the API.
	Render any

	// Params are the basic fields used in requests.
	Params struct {
		UserAgent string         `json:"-"`
		Session   *model.Session `json:"-"`
	}
)
