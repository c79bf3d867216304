// Package thread восстанавливает ветку ответов вокруг фокусного статуса
// по плоским индексам «ребёнок -> родитель» и «родитель -> дети».
package thread

// ParentIndex — индекс «id -> id родителя». Отсутствие записи означает корень
// (или то, что родитель ещё не загружен).
type ParentIndex interface {
	Parent(id string) (string, bool)
}

// ChildIndex — индекс «id -> упорядоченные id прямых ответов».
type ChildIndex interface {
	Children(id string) ([]string, bool)
}

// ParentMap — ParentIndex поверх обычной map.
type ParentMap map[string]string

func (m ParentMap) Parent(id string) (string, bool) {
	p, ok := m[id]
	return p, ok
}

// ChildMap — ChildIndex поверх обычной map.
type ChildMap map[string][]string

func (m ChildMap) Children(id string) ([]string, bool) {
	c, ok := m[id]
	return c, ok
}
