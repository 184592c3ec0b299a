// Package chain implements the Graph/Chain Builder (C9): LLM-detected
// tool-dependency chains are assembled into a directed graph, then every
// simple path within a bounded length is enumerated by DFS in insertion
// order. Grounded on basegraphhq-basegraph/codegraph's graph-node/edge
// modeling idiom (adjacency maps, visited-set DFS), adapted here to
// bounded-length simple-path enumeration over tool names instead of source
// symbols.
package chain

// Graph is a directed graph over tool names, built from detected chains.
// Edges preserve first-insertion order so DFS traversal is deterministic.
type Graph struct {
	order []string
	edges map[string][]string
	seen  map[string]map[string]bool
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		edges: make(map[string][]string),
		seen:  make(map[string]map[string]bool),
	}
}

// AddEdge adds a directed edge from -> to, recording from's first
// appearance in Graph.order and appending to to from's adjacency list only
// if the edge has not already been added (§4.9: "add edges tool_i ->
// tool_{i+1}" — a detected chain may repeat an edge across calls).
func (g *Graph) AddEdge(from, to string) {
	g.ensureNode(from)
	g.ensureNode(to)

	if g.seen[from][to] {
		return
	}
	g.seen[from][to] = true
	g.edges[from] = append(g.edges[from], to)
}

func (g *Graph) ensureNode(name string) {
	if _, ok := g.seen[name]; ok {
		return
	}
	g.seen[name] = make(map[string]bool)
	g.order = append(g.order, name)
}

// AddChain adds every consecutive pair in a detected tool-dependency chain
// as an edge (§4.9).
func (g *Graph) AddChain(chain []string) {
	for i := 0; i+1 < len(chain); i++ {
		g.AddEdge(chain[i], chain[i+1])
	}
}

// Nodes returns every node in first-insertion order.
func (g *Graph) Nodes() []string {
	return g.order
}

// Next returns from's outgoing neighbors in first-insertion order.
func (g *Graph) Next(from string) []string {
	return g.edges[from]
}

// EnumerateSubChains performs a DFS from every node, emitting every simple
// path (no repeated node) whose length (node count) falls in [minLen,
// maxLen], in insertion order (§4.9). Output is names-only, one []string
// per path.
func (g *Graph) EnumerateSubChains(minLen, maxLen int) [][]string {
	var out [][]string
	for _, start := range g.order {
		visited := map[string]bool{start: true}
		g.dfs(start, []string{start}, visited, minLen, maxLen, &out)
	}
	return out
}

func (g *Graph) dfs(node string, path []string, visited map[string]bool, minLen, maxLen int, out *[][]string) {
	if len(path) >= minLen && len(path) <= maxLen {
		cp := make([]string, len(path))
		copy(cp, path)
		*out = append(*out, cp)
	}
	if len(path) >= maxLen {
		return
	}

	for _, next := range g.Next(node) {
		if visited[next] {
			continue
		}
		visited[next] = true
		g.dfs(next, append(path, next), visited, minLen, maxLen, out)
		delete(visited, next)
	}
}
