package validation

import "slices"

// loops maps every node that sits on a cycle to the members of that cycle,
// in graph order. Strongly connected components are found with Tarjan's
// algorithm; single nodes count only when they loop onto themselves.
func (c *run) loops() map[string][]string {
	var (
		counter  int
		stack    []string
		index    = make(map[string]int, len(c.order))
		lowlink  = make(map[string]int, len(c.order))
		onStack  = make(map[string]bool, len(c.order))
		position = make(map[string]int, len(c.order))
		result   = make(map[string][]string)
	)

	for i, id := range c.order {
		position[id] = i
	}

	var connect func(string)
	connect = func(v string) {
		index[v] = counter
		lowlink[v] = counter
		counter++

		stack = append(stack, v)
		onStack[v] = true

		for _, w := range c.next[v] {
			if _, visited := index[w]; !visited {
				connect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], index[w])
			}
		}

		if lowlink[v] != index[v] {
			return
		}

		var component []string

		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			component = append(component, w)

			if w == v {
				break
			}
		}

		if len(component) == 1 && !slices.Contains(c.next[v], v) {
			return
		}

		slices.SortFunc(component, func(a, b string) int {
			return position[a] - position[b]
		})

		for _, id := range component {
			result[id] = component
		}
	}

	for _, id := range c.order {
		if _, visited := index[id]; !visited {
			connect(id)
		}
	}

	return result
}
