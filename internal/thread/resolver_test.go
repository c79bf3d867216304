package thread

// Тесты восстановления ветки (internal/thread/resolver.go).
//
//  Проверяем:
//  - порядок предков (от корня) и потомков (pre-order, соседи в порядке индекса);
//  - завершение обхода на циклических и самоссылающихся данных;
//  - непересечение половин и отсутствие focalID при противоречивых индексах;
//  - свойства на случайных деревьях (длина цепочки = глубина, каждый потомок ровно один раз).

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func requireOrder(t *testing.T, want, got []string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAncestors_Chain(t *testing.T) {
	t.Parallel()

	parents := ParentMap{"B": "A", "C": "B"}
	requireOrder(t, []string{"A", "B"}, ResolveAncestors("C", parents))
	requireOrder(t, []string{"A"}, ResolveAncestors("B", parents))
	requireOrder(t, []string{}, ResolveAncestors("A", parents))
}

func TestResolveAncestors_FocalNotInIndex(t *testing.T) {
	t.Parallel()

	requireOrder(t, []string{}, ResolveAncestors("Z", ParentMap{"B": "A"}))
	requireOrder(t, []string{}, ResolveAncestors("Z", nil))
}

func TestResolveAncestors_DanglingParent(t *testing.T) {
	t.Parallel()

	// Родитель B не загружен: цепочка обрывается на нём, но сам B в неё входит.
	requireOrder(t, []string{"B"}, ResolveAncestors("C", ParentMap{"C": "B"}))
}

func TestResolveAncestors_Cycles(t *testing.T) {
	t.Parallel()

	// A -> B -> A: focalID не возвращается даже как собственный предок.
	got := ResolveAncestors("A", ParentMap{"A": "B", "B": "A"})
	requireOrder(t, []string{"B"}, got)

	// Самоссылка.
	requireOrder(t, []string{}, ResolveAncestors("A", ParentMap{"A": "A"}))

	// Цикл выше focalID: D -> C -> B -> C.
	got = ResolveAncestors("D", ParentMap{"D": "C", "C": "B", "B": "C"})
	requireOrder(t, []string{"B", "C"}, got)
}

func TestResolveDescendants_PreOrder(t *testing.T) {
	t.Parallel()

	children := ChildMap{"A": {"B", "C"}, "B": {"D"}}
	requireOrder(t, []string{"B", "D", "C"}, ResolveDescendants("A", children))
}

func TestResolveDescendants_DeepSiblingOrder(t *testing.T) {
	t.Parallel()

	children := ChildMap{
		"R":  {"A", "B", "C"},
		"A":  {"A1", "A2"},
		"A1": {"A1a"},
		"C":  {"C1"},
	}
	requireOrder(t,
		[]string{"A", "A1", "A1a", "A2", "B", "C", "C1"},
		ResolveDescendants("R", children),
	)
}

func TestResolveDescendants_Cycles(t *testing.T) {
	t.Parallel()

	// X <-> Y.
	requireOrder(t, []string{"Y"}, ResolveDescendants("X", ChildMap{"X": {"Y"}, "Y": {"X"}}))

	// Самоссылка и дубликаты среди детей.
	requireOrder(t, []string{"B"}, ResolveDescendants("A", ChildMap{"A": {"A", "B", "B"}}))

	// Один id встречается в двух поддеревьях: выдаётся при первом обходе.
	got := ResolveDescendants("A", ChildMap{"A": {"B", "C"}, "B": {"D"}, "C": {"D"}})
	requireOrder(t, []string{"B", "D", "C"}, got)
}

func TestResolveDescendants_Empty(t *testing.T) {
	t.Parallel()

	requireOrder(t, []string{}, ResolveDescendants("A", ChildMap{}))
	requireOrder(t, []string{}, ResolveDescendants("A", nil))
}

func TestResolveThread_EmptyIndexes(t *testing.T) {
	t.Parallel()

	anc, desc := ResolveThread("any", ParentMap{}, ChildMap{})
	require.Empty(t, anc)
	require.Empty(t, desc)
	require.NotNil(t, anc)
	require.NotNil(t, desc)
}

func TestResolveThread_InconsistentIndexes(t *testing.T) {
	t.Parallel()

	// B — предок C по parents и одновременно потомок C по children.
	parents := ParentMap{"C": "B", "B": "A"}
	children := ChildMap{"C": {"B", "D"}}

	anc, desc := ResolveThread("C", parents, children)
	requireOrder(t, []string{"A"}, anc)
	requireOrder(t, []string{"D"}, desc)
}

// Спорные id выпадают из обеих половин, а не остаются у предков.
func TestResolveThread_ClaimedByBothDroppedFromBoth(t *testing.T) {
	t.Parallel()

	parents := ParentMap{"F": "B", "B": "A"}
	children := ChildMap{"F": {"B", "C"}, "C": {"A"}}

	anc, desc := ResolveThread("F", parents, children)
	requireOrder(t, []string{}, anc)
	requireOrder(t, []string{"C"}, desc)
}

func TestResolveThread_FocalEverywhere(t *testing.T) {
	t.Parallel()

	parents := ParentMap{"F": "P", "P": "F"}
	children := ChildMap{"F": {"K", "F"}, "K": {"F"}}

	anc, desc := ResolveThread("F", parents, children)
	require.NotContains(t, anc, "F")
	require.NotContains(t, desc, "F")
	requireOrder(t, []string{"P"}, anc)
	requireOrder(t, []string{"K"}, desc)
}

func TestResolveThread_Consistent(t *testing.T) {
	t.Parallel()

	parents := ParentMap{"B": "A", "C": "B", "D": "C", "E": "C", "F": "D"}
	children := ChildMap{"A": {"B"}, "B": {"C"}, "C": {"D", "E"}, "D": {"F"}}

	anc, desc := ResolveThread("C", parents, children)
	requireOrder(t, []string{"A", "B"}, anc)
	requireOrder(t, []string{"D", "F", "E"}, desc)
}

func TestDepth(t *testing.T) {
	t.Parallel()

	parents := ParentMap{"B": "A", "C": "B"}
	require.Equal(t, 0, Depth("A", parents))
	require.Equal(t, 2, Depth("C", parents))
	require.Equal(t, 1, Depth("A", ParentMap{"A": "B", "B": "A"}))
}

// randomTree строит случайное дерево из n узлов: узел i отвечает на случайный j < i.
func randomTree(r *rand.Rand, n int) (ParentMap, ChildMap, map[string]int) {
	parents := ParentMap{}
	children := ChildMap{}
	depth := map[string]int{"n0": 0}

	for i := 1; i < n; i++ {
		id := fmt.Sprintf("n%d", i)
		parent := fmt.Sprintf("n%d", r.Intn(i))
		parents[id] = parent
		children[parent] = append(children[parent], id)
		depth[id] = depth[parent] + 1
	}

	return parents, children, depth
}

func TestResolve_RandomTrees(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		n := 1 + r.Intn(60)
		parents, children, depth := randomTree(r, n)
		focal := fmt.Sprintf("n%d", r.Intn(n))

		anc := ResolveAncestors(focal, parents)
		require.Len(t, anc, depth[focal])
		if len(anc) > 0 {
			require.Equal(t, "n0", anc[0])
			require.Equal(t, parents[focal], anc[len(anc)-1])
		}

		desc := ResolveDescendants(focal, children)

		// Ожидаемое множество — все узлы, у которых focal среди предков.
		want := map[string]struct{}{}
		for id := range depth {
			for p, ok := parents[id]; ok; p, ok = parents[p] {
				if p == focal {
					want[id] = struct{}{}
					break
				}
			}
		}
		require.Len(t, desc, len(want))

		pos := make(map[string]int, len(desc))
		for i, id := range desc {
			_, dup := pos[id]
			require.False(t, dup, "duplicate %s", id)
			_, ok := want[id]
			require.True(t, ok, "unexpected %s", id)
			pos[id] = i
		}

		// Родитель идёт раньше ребёнка, соседи — в порядке индекса.
		for _, id := range desc {
			if p := parents[id]; p != focal {
				require.Less(t, pos[p], pos[id])
			}
			kids := children[id]
			for k := 1; k < len(kids); k++ {
				require.Less(t, pos[kids[k-1]], pos[kids[k]])
			}
		}

		a2, d2 := ResolveThread(focal, parents, children)
		requireOrder(t, anc, a2)
		requireOrder(t, desc, d2)
	}
}

func TestResolveThread_RandomAdversarial(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}

	for iter := 0; iter < 500; iter++ {
		parents := ParentMap{}
		children := ChildMap{}
		for _, id := range ids {
			if r.Intn(3) > 0 {
				parents[id] = ids[r.Intn(len(ids))]
			}
			for k := r.Intn(4); k > 0; k-- {
				children[id] = append(children[id], ids[r.Intn(len(ids))])
			}
		}
		focal := ids[r.Intn(len(ids))]

		anc, desc := ResolveThread(focal, parents, children)
		require.NotContains(t, anc, focal)
		require.NotContains(t, desc, focal)
		require.LessOrEqual(t, len(anc)+len(desc), len(ids)-1)

		inAnc := map[string]struct{}{}
		for _, id := range anc {
			_, dup := inAnc[id]
			require.False(t, dup)
			inAnc[id] = struct{}{}
		}
		inDesc := map[string]struct{}{}
		for _, id := range desc {
			_, dup := inDesc[id]
			require.False(t, dup)
			_, clash := inAnc[id]
			require.False(t, clash, "%s in both halves", id)
			inDesc[id] = struct{}{}
		}
	}
}
