package serializer

import "time"

func utc(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
