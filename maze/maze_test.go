package maze

import (
	"errors"
	"testing"
)

func TestMulberry32MatchesBrowserStream(t *testing.T) {
	tests := []struct {
		seed uint32
		want []float64
	}{
		{seed: 42, want: []float64{0.6011037519201636, 0.44829055899754167, 0.8524657934904099}},
		{seed: 0, want: []float64{0.26642920868471265, 0.0003297457005828619}},
		// -1 in the browser's signed arithmetic.
		{seed: 0xFFFFFFFF, want: []float64{0.8964226141106337, 0.189478256739676}},
	}

	for _, tt := range tests {
		src := NewMulberry32(tt.seed)
		for i, want := range tt.want {
			if got := src.Next(); got != want {
				t.Fatalf("seed %d draw %d: got %v, want %v", tt.seed, i, got, want)
			}
		}
	}
}

func TestMulberry32Range(t *testing.T) {
	src := NewMulberry32(1234)
	for i := 0; i < 10000; i++ {
		v := src.Next()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d out of range: %v", i, v)
		}
	}
}

func TestGenerateKnownLayout(t *testing.T) {
	g, err := Generate(7, 7, 42)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := "#######\n" +
		"#...#.#\n" +
		"###.#.#\n" +
		"#.#...#\n" +
		"#.###.#\n" +
		"#.....#\n" +
		"#######"
	if got := g.String(); got != want {
		t.Fatalf("unexpected layout:\n%s\nwant:\n%s", got, want)
	}

	small, err := Generate(5, 5, 42)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantSmall := "#####\n#...#\n###.#\n#...#\n#####"
	if got := small.String(); got != wantSmall {
		t.Fatalf("unexpected 5x5 layout:\n%s\nwant:\n%s", got, wantSmall)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	dims := [][2]int{{5, 5}, {7, 9}, {21, 21}, {31, 15}}
	for _, d := range dims {
		for seed := uint32(0); seed < 50; seed++ {
			a, err := Generate(d[0], d[1], seed)
			if err != nil {
				t.Fatalf("Generate(%d,%d,%d): %v", d[0], d[1], seed, err)
			}
			b, err := Generate(d[0], d[1], seed)
			if err != nil {
				t.Fatalf("Generate(%d,%d,%d): %v", d[0], d[1], seed, err)
			}
			if !a.Equal(b) {
				t.Fatalf("seed %d produced different grids for %dx%d", seed, d[0], d[1])
			}
		}
	}
}

func TestGenerateDifferentSeedsDiffer(t *testing.T) {
	a, _ := Generate(5, 5, 42)
	b, _ := Generate(5, 5, 7)
	if a.Equal(b) {
		t.Fatalf("expected seeds 42 and 7 to carve different 5x5 mazes")
	}

	base, _ := Generate(21, 21, 1)
	same := 0
	for seed := uint32(2); seed < 40; seed++ {
		other, _ := Generate(21, 21, seed)
		if base.Equal(other) {
			same++
		}
	}
	if same > 0 {
		t.Fatalf("%d seeds reproduced the seed-1 maze", same)
	}
}

func TestGeneratePerfectMaze(t *testing.T) {
	dims := [][2]int{{3, 3}, {5, 5}, {9, 7}, {21, 21}, {41, 25}}
	for _, d := range dims {
		for seed := uint32(0); seed < 30; seed++ {
			g, err := Generate(d[0], d[1], seed*7919+3)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			assertPerfect(t, g)
		}
	}
}

func TestGoalAlwaysReachable(t *testing.T) {
	for seed := uint32(0); seed < 100; seed++ {
		g, err := Generate(15, 11, seed)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !g.IsPassage(g.Goal()) {
			t.Fatalf("seed %d: goal %v is a wall", seed, g.Goal())
		}
		path, ok := Path(g, g.Start(), g.Goal())
		if !ok {
			t.Fatalf("seed %d: goal unreachable", seed)
		}
		if path[0] != g.Start() || path[len(path)-1] != g.Goal() {
			t.Fatalf("seed %d: path endpoints %v..%v", seed, path[0], path[len(path)-1])
		}
		for i := 1; i < len(path); i++ {
			if _, ok := StepBetween(path[i-1], path[i]); !ok {
				t.Fatalf("seed %d: path jumps from %v to %v", seed, path[i-1], path[i])
			}
		}
	}
}

func TestGeneratePreconditions(t *testing.T) {
	tests := []struct {
		rows, cols int
		want       error
	}{
		{rows: 2, cols: 5, want: ErrDimensionTooSmall},
		{rows: 5, cols: 1, want: ErrDimensionTooSmall},
		{rows: 0, cols: 0, want: ErrDimensionTooSmall},
		{rows: 4, cols: 4, want: ErrEvenDimension},
		{rows: 5, cols: 20, want: ErrEvenDimension},
		{rows: 257, cols: 5, want: ErrDimensionTooLarge},
		{rows: 5, cols: 4294967295, want: ErrDimensionTooLarge},
		{rows: 256, cols: 256, want: ErrDimensionTooLarge},
	}
	for _, tt := range tests {
		_, err := Generate(tt.rows, tt.cols, 42)
		if !errors.Is(err, tt.want) {
			t.Errorf("Generate(%d,%d): got %v, want %v", tt.rows, tt.cols, err, tt.want)
		}
	}

	if _, err := Generate(maxDimension, maxDimension, 42); err != nil {
		t.Errorf("Generate at the size cap: %v", err)
	}
	if _, err := Carve(5, 5, nil); !errors.Is(err, ErrNilSource) {
		t.Errorf("Carve with nil source: got %v", err)
	}
}

type fixedSource float64

func (f fixedSource) Next() float64 { return float64(f) }

func TestCarveAlwaysFirstNeighbor(t *testing.T) {
	// Always picking index 0 prefers N, then S, so the first column is dug
	// straight down before anything else.
	g, err := Carve(7, 7, fixedSource(0))
	if err != nil {
		t.Fatalf("Carve: %v", err)
	}
	for r := 1; r <= 5; r++ {
		if !g.IsPassage(Position{Row: r, Col: 1}) {
			t.Fatalf("expected (%d,1) to be carved:\n%s", r, g)
		}
	}
	assertPerfect(t, g)
}

func TestCanMove(t *testing.T) {
	g, err := Generate(7, 7, 42)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tests := []struct {
		name string
		from Position
		dir  Direction
		want bool
	}{
		{name: "carved edge east", from: Position{1, 1}, dir: East, want: true},
		{name: "wall north of start", from: Position{1, 1}, dir: North, want: false},
		{name: "wall south of start", from: Position{1, 1}, dir: South, want: false},
		{name: "uncarved edge east", from: Position{1, 3}, dir: East, want: false},
		{name: "carved edge south", from: Position{1, 3}, dir: South, want: true},
		{name: "out of bounds", from: Position{0, 0}, dir: North, want: false},
		{name: "out of bounds west", from: Position{3, 0}, dir: West, want: false},
		{name: "no direction", from: Position{1, 1}, dir: NoDirection, want: false},
		{name: "invalid direction", from: Position{1, 1}, dir: Direction(9), want: false},
	}
	for _, tt := range tests {
		if got := CanMove(g, tt.from, tt.dir); got != tt.want {
			t.Errorf("%s: CanMove(%v, %v) = %v, want %v", tt.name, tt.from, tt.dir, got, tt.want)
		}
	}
}

func TestCanMoveMatchesGrid(t *testing.T) {
	g, err := Generate(11, 13, 99)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for r := -1; r <= g.Rows(); r++ {
		for c := -1; c <= g.Cols(); c++ {
			from := Position{Row: r, Col: c}
			for _, d := range []Direction{North, South, West, East} {
				to := from.Step(d)
				want := g.InBounds(to) && g.At(to) == Passage
				if got := CanMove(g, from, d); got != want {
					t.Fatalf("CanMove(%v, %v) = %v, want %v", from, d, got, want)
				}
			}
		}
	}
}

func TestParseDirection(t *testing.T) {
	tests := map[string]Direction{
		"up":        North,
		"ArrowDown": South,
		"a":         West,
		"right":     East,
		" w ":       North,
		"s":         South,
		"d":         East,
		"sideways":  NoDirection,
		"":          NoDirection,
	}
	for in, want := range tests {
		got, ok := ParseDirection(in)
		if got != want || ok != (want != NoDirection) {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
}

func TestPathRejectsWalls(t *testing.T) {
	g, _ := Generate(7, 7, 42)
	if _, ok := Path(g, Position{0, 0}, g.Goal()); ok {
		t.Fatalf("expected no path from a wall cell")
	}
	path, ok := Path(g, g.Start(), g.Start())
	if !ok || len(path) != 1 {
		t.Fatalf("expected single-cell path, got %v %v", path, ok)
	}
}

// assertPerfect checks that the passages form a spanning tree: connected
// from the start and with exactly passages-1 adjacencies.
func assertPerfect(t *testing.T, g *Grid) {
	t.Helper()

	passages := g.Passages()
	edges := 0
	for _, p := range passages {
		if g.IsPassage(p.Step(South)) {
			edges++
		}
		if g.IsPassage(p.Step(East)) {
			edges++
		}
	}
	if edges != len(passages)-1 {
		t.Fatalf("expected %d edges for a tree, got %d:\n%s", len(passages)-1, edges, g)
	}

	seen := map[Position]bool{g.Start(): true}
	stack := []Position{g.Start()}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range []Direction{North, South, West, East} {
			next := cur.Step(d)
			if g.IsPassage(next) && !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	if len(seen) != len(passages) {
		t.Fatalf("flood fill reached %d of %d passages:\n%s", len(seen), len(passages), g)
	}
}
