package contexts

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pribylovaa/threads-service/internal/models"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

const testSize = 1024

// st — быстрый хелпер: статус id с родителем parent, созданный через min минут после base.
func st(id, parent string, min int) models.Status {
	return models.Status{
		ID:          id,
		InReplyToID: parent,
		Content:     "content " + id,
		CreatedAt:   base.Add(time.Duration(min) * time.Minute),
	}
}

func TestStore_ImportAndResolve(t *testing.T) {
	t.Parallel()

	s := New(testSize)
	s.Import(
		st("A", "", 0),
		st("B", "A", 1),
		st("C", "B", 2),
		st("D", "C", 3),
		st("E", "C", 4),
		st("F", "D", 5),
	)

	anc, desc := s.Resolve("C")
	require.Equal(t, []string{"A", "B"}, anc)
	require.Equal(t, []string{"D", "F", "E"}, desc)
	require.Equal(t, 6, s.Len())
	require.Equal(t, 2, s.Depth("C"))
}

func TestStore_ChildrenOrderedByCreatedAt(t *testing.T) {
	t.Parallel()

	s := New(testSize)
	// Импорт в «перемешанном» порядке, как приходят ответы из разных страниц.
	s.Import(st("late", "root", 30), st("root", "", 0))
	s.Import(st("early", "root", 10), st("mid", "root", 20))
	// Одинаковое время — тай-брейк по id.
	s.Import(st("mid-b", "root", 20))

	_, desc := s.Resolve("root")
	require.Equal(t, []string{"early", "mid", "mid-b", "late"}, desc)
}

func TestStore_ReimportIsIdempotent(t *testing.T) {
	t.Parallel()

	s := New(testSize)
	s.Import(st("A", "", 0), st("B", "A", 1))
	s.Import(st("B", "A", 1), st("B", "A", 1))

	_, desc := s.Resolve("A")
	require.Equal(t, []string{"B"}, desc)
}

func TestStore_ReimportMovesReparented(t *testing.T) {
	t.Parallel()

	s := New(testSize)
	s.Import(st("A", "", 0), st("X", "", 1), st("B", "A", 2))

	moved := st("B", "X", 2)
	s.Import(moved)

	_, descA := s.Resolve("A")
	require.Empty(t, descA)

	anc, _ := s.Resolve("B")
	require.Equal(t, []string{"X"}, anc)
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	s := New(testSize)
	s.Import(st("A", "", 0), st("B", "A", 1), st("C", "B", 2), st("D", "A", 3))
	s.Remove("B")

	_, desc := s.Resolve("A")
	require.Equal(t, []string{"D"}, desc)

	// C по-прежнему ссылается на B, но записи о B больше нет.
	anc, _ := s.Resolve("C")
	require.Equal(t, []string{"B"}, anc)
	require.Empty(t, s.Statuses(anc))

	_, ok := s.Status("B")
	require.False(t, ok)
	require.Equal(t, 3, s.Len())
}

func TestStore_Statuses_PreservesOrderSkipsUnknown(t *testing.T) {
	t.Parallel()

	s := New(testSize)
	s.Import(st("A", "", 0), st("B", "A", 1))

	got := s.Statuses([]string{"B", "nope", "A"})
	require.Len(t, got, 2)
	require.Equal(t, "B", got[0].ID)
	require.Equal(t, "A", got[1].ID)
}

func TestStore_IgnoresEmptyID(t *testing.T) {
	t.Parallel()

	s := New(testSize)
	s.Import(models.Status{InReplyToID: "A"})
	require.Zero(t, s.Len())
}

func TestStore_CyclicImportTerminates(t *testing.T) {
	t.Parallel()

	s := New(testSize)
	s.Import(st("A", "B", 0), st("B", "A", 1))

	anc, desc := s.Resolve("A")
	require.NotContains(t, anc, "A")
	require.NotContains(t, desc, "A")
	require.Empty(t, anc)
	require.Empty(t, desc)
}

func TestStore_ResultsDoNotAliasStore(t *testing.T) {
	t.Parallel()

	s := New(testSize)
	s.Import(st("A", "", 0), st("B", "A", 1), st("C", "A", 2))

	_, desc := s.Resolve("A")
	desc[0] = "mutated"

	_, again := s.Resolve("A")
	require.Equal(t, []string{"B", "C"}, again)
}

// Конкурентные Import/Resolve/Remove (запускать с -race).
func TestStore_Concurrent(t *testing.T) {
	t.Parallel()

	s := New(testSize)
	s.Import(st("root", "", 0))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				s.Import(st(id, "root", i))
				_, _ = s.Resolve("root")
				if i%10 == 0 {
					s.Remove(id)
				}
			}
		}(w)
	}
	wg.Wait()

	_, desc := s.Resolve("root")
	require.Len(t, desc, 8*90)
}

// После N импортов размер кэша и индексов не превышает ёмкость.
func TestStore_CapacityHolds(t *testing.T) {
	t.Parallel()

	const size = 100
	s := New(size)

	prev := ""
	for i := 0; i < 10*size; i++ {
		id := fmt.Sprintf("s%04d", i)
		s.Import(st(id, prev, i))
		prev = id
	}

	require.Equal(t, size, s.Len())
	require.LessOrEqual(t, len(s.parents), size)

	links := 0
	for _, kids := range s.children {
		links += len(kids)
	}
	require.LessOrEqual(t, links, size)

	_, ok := s.Status("s0000")
	require.False(t, ok)
	_, ok = s.Status(prev)
	require.True(t, ok)
}

// Вытесненный статус пропадает из списка ответов родителя; его собственные ответы
// остаются привязанными к нему.
func TestStore_EvictionDropsLinks(t *testing.T) {
	t.Parallel()

	s := New(3)
	s.Import(st("P", "", 0), st("C", "P", 1), st("G", "C", 2))

	// P самый давний: уходит первым.
	s.Import(st("X", "", 3))
	_, ok := s.Status("P")
	require.False(t, ok)

	anc, _ := s.Resolve("G")
	require.Equal(t, []string{"P", "C"}, anc)
	require.Len(t, s.Statuses(anc), 1)

	// Следом вытесняется C: из ответов P он исчезает, связь G -> C остаётся.
	s.Import(st("Y", "", 4))
	_, desc := s.Resolve("P")
	require.Empty(t, desc)
	require.Equal(t, 1, s.Depth("G"))
	require.Equal(t, 3, s.Len())
}

// Повторный импорт освежает статус и спасает его от вытеснения.
func TestStore_ReimportRefreshesRecency(t *testing.T) {
	t.Parallel()

	s := New(2)
	s.Import(st("A", "", 0), st("B", "", 1))
	s.Import(st("A", "", 0))
	s.Import(st("C", "", 2))

	_, ok := s.Status("A")
	require.True(t, ok)
	_, ok = s.Status("B")
	require.False(t, ok)
}

func TestStore_Fresh(t *testing.T) {
	t.Parallel()

	now := base
	s := New(testSize)
	s.now = func() time.Time { return now }

	s.Import(st("A", "", 0))

	got, ok := s.Fresh("A", time.Minute)
	require.True(t, ok)
	require.Equal(t, "A", got.ID)

	_, ok = s.Fresh("A", 0)
	require.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = s.Fresh("A", time.Minute)
	require.False(t, ok)

	// Устаревшая запись по-прежнему доступна как данные, просто не как «свежая».
	_, ok = s.Status("A")
	require.True(t, ok)

	_, ok = s.Fresh("nope", time.Minute)
	require.False(t, ok)
}

func TestStore_NewNonPositiveSizeUsesDefault(t *testing.T) {
	t.Parallel()

	s := New(0)
	s.Import(st("A", "", 0))
	require.Equal(t, 1, s.Len())
}
