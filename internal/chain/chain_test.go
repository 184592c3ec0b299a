package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumerateSubChains_LinearChain(t *testing.T) {
	g := NewGraph()
	g.AddChain([]string{"search", "fetch", "summarize"})

	paths := g.EnumerateSubChains(2, 3)

	assert.Contains(t, paths, []string{"search", "fetch"})
	assert.Contains(t, paths, []string{"fetch", "summarize"})
	assert.Contains(t, paths, []string{"search", "fetch", "summarize"})
}

func TestEnumerateSubChains_NoRepeatedNodes(t *testing.T) {
	g := NewGraph()
	g.AddChain([]string{"a", "b", "c"})
	g.AddEdge("c", "a") // cycle

	paths := g.EnumerateSubChains(1, 5)
	for _, p := range paths {
		seen := map[string]bool{}
		for _, n := range p {
			assert.False(t, seen[n], "path %v must not repeat a node", p)
			seen[n] = true
		}
	}
}

func TestEnumerateSubChains_RespectsLengthBounds(t *testing.T) {
	g := NewGraph()
	g.AddChain([]string{"a", "b", "c", "d"})

	paths := g.EnumerateSubChains(3, 3)
	for _, p := range paths {
		assert.Len(t, p, 3)
	}
	assert.NotEmpty(t, paths)
}

func TestAddEdge_Deduplicates(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a", "b")
	g.AddEdge("a", "b")
	assert.Equal(t, []string{"b"}, g.Next("a"))
}

func TestNodes_PreservesInsertionOrder(t *testing.T) {
	g := NewGraph()
	g.AddEdge("z", "a")
	g.AddEdge("a", "m")
	assert.Equal(t, []string{"z", "a", "m"}, g.Nodes())
}
