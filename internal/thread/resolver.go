package thread

// ResolveAncestors возвращает цепочку предков focalID от корня до непосредственного родителя.
//
// Обход идёт вверх по parents, начиная с родителя focalID, и останавливается, когда:
//   - у очередного id нет записи о родителе (дошли до корня или до незагруженной части ветки);
//   - очередной id уже есть в цепочке или совпадает с focalID (цикл в данных).
//
// Результат никогда не содержит focalID. Ошибок нет: неполные данные дают более короткую цепочку.
func ResolveAncestors(focalID string, parents ParentIndex) []string {
	if parents == nil {
		return []string{}
	}

	seen := map[string]struct{}{focalID: {}}
	var chain []string

	id, ok := parents.Parent(focalID)
	for ok {
		if _, dup := seen[id]; dup {
			break
		}
		seen[id] = struct{}{}
		chain = append(chain, id)

		id, ok = parents.Parent(id)
	}

	// Копили снизу вверх, отдаём от корня.
	out := make([]string, len(chain))
	for i, id := range chain {
		out[len(chain)-1-i] = id
	}

	return out
}

// ResolveDescendants возвращает все ответы, достижимые из focalID, в порядке чтения ветки:
// каждый ответ идёт сразу перед своими собственными ответами, соседи — в порядке индекса.
//
// Очередь работы засевается focalID; дети очередного id кладутся в начало очереди
// в обратном порядке, так что следующим извлекается первый ребёнок. Уже посещённые
// id повторно не раскрываются, поэтому циклы в children не приводят к зацикливанию.
func ResolveDescendants(focalID string, children ChildIndex) []string {
	out := []string{}
	if children == nil {
		return out
	}

	seen := make(map[string]struct{})
	// Стек: вершина — конец слайса. Эквивалентно «unshift» в начало очереди.
	stack := []string{focalID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if id != focalID {
			out = append(out, id)
		}

		kids, ok := children.Children(id)
		if !ok {
			continue
		}

		for i := len(kids) - 1; i >= 0; i-- {
			if _, dup := seen[kids[i]]; dup {
				continue
			}
			stack = append(stack, kids[i])
		}
	}

	return out
}

// ResolveThread собирает обе половины ветки и нормализует их друг относительно друга.
//
// Индексы родителей и детей наполняются независимо и могут противоречить друг другу,
// поэтому из предков убираются id, найденные среди потомков, и наоборот. Вычитание
// делается по исходным (ненормализованным) результатам: id, на который претендуют
// оба индекса, не попадает ни в одну из половин. focalID не попадает никуда.
//
// Это не последовательное вычитание (сначала предки, потом потомки), при котором
// спорный id остался бы в одной из половин. Например, для parents={F:B, B:A} и
// children={F:[B, C], C:[A]} результат для F: предков нет, потомки [C]; родитель B
// пропадает, пока индексы не согласуются после следующей загрузки.
func ResolveThread(focalID string, parents ParentIndex, children ChildIndex) (ancestors, descendants []string) {
	rawAnc := ResolveAncestors(focalID, parents)
	rawDesc := ResolveDescendants(focalID, children)

	inAnc := make(map[string]struct{}, len(rawAnc))
	for _, id := range rawAnc {
		inAnc[id] = struct{}{}
	}

	inDesc := make(map[string]struct{}, len(rawDesc))
	for _, id := range rawDesc {
		inDesc[id] = struct{}{}
	}

	ancestors = make([]string, 0, len(rawAnc))
	for _, id := range rawAnc {
		if _, clash := inDesc[id]; clash || id == focalID {
			continue
		}
		ancestors = append(ancestors, id)
	}

	descendants = make([]string, 0, len(rawDesc))
	for _, id := range rawDesc {
		if _, clash := inAnc[id]; clash || id == focalID {
			continue
		}
		descendants = append(descendants, id)
	}

	return ancestors, descendants
}

// Depth — глубина focalID в ветке по известным данным (корень = 0).
// Для неполного индекса это нижняя граница реальной глубины.
func Depth(focalID string, parents ParentIndex) int {
	return len(ResolveAncestors(focalID, parents))
}
