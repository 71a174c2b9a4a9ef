package maze

// Path returns the passage cells leading from one position to another,
// both ends included. In a perfect maze the path is the unique simple path.
func Path(g *Grid, from, to Position) ([]Position, bool) {
	if g == nil || !g.IsPassage(from) || !g.IsPassage(to) {
		return nil, false
	}

	prev := map[Position]Position{from: from}
	queue := []Position{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			break
		}
		for _, d := range []Direction{North, South, West, East} {
			next := cur.Step(d)
			if _, seen := prev[next]; seen || !g.IsPassage(next) {
				continue
			}
			prev[next] = cur
			queue = append(queue, next)
		}
	}

	if _, ok := prev[to]; !ok {
		return nil, false
	}

	path := []Position{to}
	for cur := to; cur != from; {
		cur = prev[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}
