// Package contexts хранит индексы связей «ответ -> родитель» и «родитель -> ответы»
// вместе с кэшем самих статусов и отдаёт по ним снимки веток.
//
// Индексы наполняются инкрементально (по мере загрузки статусов из хранилища)
// и могут быть неполными или противоречивыми; восстановление ветки это допускает.
// Число статусов ограничено: при переполнении вытесняется давно не загружавшийся
// статус вместе со своими связями.
package contexts

import (
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/pribylovaa/threads-service/internal/models"
	"github.com/pribylovaa/threads-service/internal/thread"
)

// DefaultSize — ёмкость по умолчанию, если в New передан size <= 0.
const DefaultSize = 100_000

type entry struct {
	status   models.Status
	loadedAt time.Time
}

// Store — потокобезопасное хранилище индексов веток.
// Import/Remove/Fresh берут эксклюзивную блокировку, остальное чтение — разделяемую.
//
// Инвариант: parents и списки children содержат только id, лежащие в statuses.
// Ключом children может остаться вытесненный родитель, но его список состоит
// из живых id, так что общий размер индексов ограничен ёмкостью.
type Store struct {
	mu       sync.RWMutex
	parents  map[string]string
	children map[string][]string
	statuses *simplelru.LRU[string, entry]
	now      func() time.Time
}

// New создаёт пустой Store ёмкостью size статусов.
func New(size int) *Store {
	if size <= 0 {
		size = DefaultSize
	}

	s := &Store{
		parents:  make(map[string]string),
		children: make(map[string][]string),
		now:      time.Now,
	}
	// Ошибка возможна только при size <= 0.
	s.statuses, _ = simplelru.NewLRU[string, entry](size, s.onEvict)

	return s
}

// Import добавляет или обновляет статусы и отмечает их как недавно использованные.
//
// Для ответа выставляется связь с родителем, а сам id вставляется в список ответов
// родителя с сохранением порядка (CreatedAt, ID). Повторный импорт со сменой родителя
// переносит id между списками. Статусы без ID игнорируются.
func (s *Store) Import(statuses ...models.Status) {
	if len(statuses) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, st := range statuses {
		if st.ID == "" {
			continue
		}

		s.detach(st.ID)
		s.statuses.Add(st.ID, entry{status: st, loadedAt: now})

		if st.InReplyToID == "" {
			continue
		}

		s.parents[st.ID] = st.InReplyToID
		s.insertChild(st.InReplyToID, st)
	}
}

// Remove удаляет статус из кэша и из списка ответов его родителя.
// Связи его собственных ответов сохраняются и становятся «висячими».
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses.Remove(id)
	s.detach(id)
}

// Resolve возвращает предков и потомков focalID по текущему снимку индексов.
// Результаты — новые слайсы, не разделяющие память со Store.
func (s *Store) Resolve(focalID string) (ancestors, descendants []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return thread.ResolveThread(focalID, thread.ParentMap(s.parents), thread.ChildMap(s.children))
}

// Depth — известная глубина статуса в ветке (корень = 0).
func (s *Store) Depth(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return thread.Depth(id, thread.ParentMap(s.parents))
}

// Status возвращает статус из кэша независимо от его возраста.
func (s *Store) Status(id string) (models.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.statuses.Peek(id)
	return e.status, ok
}

// Fresh возвращает статус, только если он загружен не раньше maxAge назад,
// и отмечает его как недавно использованный. maxAge <= 0 — кэшу не доверяем.
func (s *Store) Fresh(id string, maxAge time.Duration) (models.Status, bool) {
	if maxAge <= 0 {
		return models.Status{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.statuses.Get(id)
	if !ok || s.now().Sub(e.loadedAt) > maxAge {
		return models.Status{}, false
	}

	return e.status, true
}

// Statuses возвращает записи по id в том же порядке; неизвестные id пропускаются.
func (s *Store) Statuses(ids []string) []models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Status, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.statuses.Peek(id); ok {
			out = append(out, e.status)
		}
	}

	return out
}

// Len — количество статусов в кэше.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.statuses.Len()
}

// onEvict вызывается LRU при вытеснении и при Remove. Вызывается под s.mu.
func (s *Store) onEvict(id string, _ entry) {
	s.detach(id)
}

// detach убирает связь id с родителем. Вызывается под s.mu.
func (s *Store) detach(id string) {
	parent, ok := s.parents[id]
	if !ok {
		return
	}
	delete(s.parents, id)

	kids := slices.DeleteFunc(s.children[parent], func(c string) bool { return c == id })
	if len(kids) == 0 {
		delete(s.children, parent)
		return
	}
	s.children[parent] = kids
}

// insertChild вставляет st в список ответов parent по (CreatedAt, ID). Вызывается под s.mu.
func (s *Store) insertChild(parent string, st models.Status) {
	kids := s.children[parent]

	i, found := slices.BinarySearchFunc(kids, st, func(id string, target models.Status) int {
		return s.compare(id, target)
	})
	if found {
		return
	}

	s.children[parent] = slices.Insert(kids, i, st.ID)
}

// compare сравнивает уже проиндексированный id с target по (CreatedAt, ID).
func (s *Store) compare(id string, target models.Status) int {
	cur, _ := s.statuses.Peek(id)
	if c := cur.status.CreatedAt.Compare(target.CreatedAt); c != 0 {
		return c
	}

	switch {
	case id < target.ID:
		return -1
	case id > target.ID:
		return 1
	default:
		return 0
	}
}
