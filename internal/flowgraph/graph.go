package flowgraph

import (
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1"

	"github.com/phst-randomizer/zed/script"
)

const maxRGB = 240

type edgeKey struct {
	from, to string
}

// ControlFlow builds the directed control-flow graph of one BMG's
// instruction stream. Vertices are instruction slots plus script entries
// and END; switch edges carry their branch name; every edge is colored on
// a blue-to-red gradient by distance from the entry points.
func ControlFlow(src Source) (graph.Graph[string, string], error) {
	f := src.File
	insts, err := script.DisassembleAll(f.Instructions())
	if err != nil {
		return nil, errors.Wrap(err, src.Name)
	}
	labels := f.Labels()

	g := graph.New(graph.StringHash, graph.Directed())
	slot := func(i int) string { return fmt.Sprintf("B%d_L%d", f.ID(), i) }

	for i, inst := range insts {
		label := fmt.Sprintf("%s\\n%s", slot(i), inst.Mnemonic())
		if err := g.AddVertex(slot(i), graph.VertexAttribute("label", label)); err != nil {
			return nil, errors.Wrap(err, "add vertex")
		}
	}

	// Collect edges in a map first so parallel switch branches onto the
	// same target collapse into one labeled edge.
	edges := make(map[edgeKey][]string)
	var order []edgeKey
	addEdge := func(from, to, name string) {
		k := edgeKey{from, to}
		if _, ok := edges[k]; !ok {
			order = append(order, k)
			edges[k] = nil
		}
		if name != "" {
			edges[k] = append(edges[k], name)
		}
	}

	var entries []string
	for _, s := range f.Scripts() {
		name := scriptName(s.ScriptID)
		err := g.AddVertex(name, graph.VertexAttribute("shape", "box"))
		if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, errors.Wrap(err, "add entry vertex")
		}
		entries = append(entries, name)
		if int(s.Instruction) < len(insts) {
			addEdge(name, slot(int(s.Instruction)), "")
		}
	}

	for i, inst := range insts {
		from := slot(i)
		switch v := inst.(type) {
		case *script.Say:
			addEdge(from, v.Next.String(), "")
		case *script.Switch:
			for j := 0; j < int(v.NumLabels); j++ {
				li := int(v.FirstLabel) + j
				if li < 0 || li >= len(labels) {
					continue
				}
				addEdge(from, labels[li].String(), v.BranchName(j))
			}
		case *script.Do:
			addEdge(from, doTarget(v.LabelNumber, labels), "")
		}
	}

	// END and cross-file targets only exist as edge endpoints.
	for _, k := range order {
		err := g.AddVertex(k.to, graph.VertexAttribute("shape", "plaintext"))
		if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, errors.Wrap(err, "add target vertex")
		}
	}

	depth, maxDepth := walkDepths(order, entries, insts, slot)

	for _, k := range order {
		d, ok := depth[k.from]
		if !ok {
			d = maxDepth
		}
		hex, err := gradient(d, maxDepth)
		if err != nil {
			return nil, err
		}
		opts := []func(*graph.EdgeProperties){graph.EdgeAttribute("color", hex)}
		if names := edges[k]; len(names) > 0 {
			opts = append(opts, graph.EdgeAttribute("label", strings.Join(names, ", ")))
		}
		if err := g.AddEdge(k.from, k.to, opts...); err != nil {
			return nil, errors.Wrapf(err, "edge %s -> %s", k.from, k.to)
		}
	}
	return g, nil
}

// walkDepths runs a breadth-first walk from the script entries (or slot 0
// when the file declares none) and reports each vertex's distance.
func walkDepths(order []edgeKey, entries []string, insts []script.Instruction, slot func(int) string) (map[string]int, int) {
	adj := make(map[string][]string)
	for _, k := range order {
		adj[k.from] = append(adj[k.from], k.to)
	}

	seeds := entries
	if len(seeds) == 0 && len(insts) > 0 {
		seeds = []string{slot(0)}
	}

	depth := make(map[string]int)
	var queue []string
	for _, s := range seeds {
		if _, ok := depth[s]; !ok {
			depth[s] = 0
			queue = append(queue, s)
		}
	}
	maxDepth := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if _, ok := depth[next]; ok {
				continue
			}
			depth[next] = depth[cur] + 1
			if depth[next] > maxDepth {
				maxDepth = depth[next]
			}
			queue = append(queue, next)
		}
	}
	return depth, maxDepth
}

// gradient maps depth 0..max onto blue-to-red, hotter the deeper.
func gradient(d, max int) (string, error) {
	fraction := 1.0
	if max > 0 {
		fraction = float64(d) / float64(max)
	}
	c, err := colors.RGB(uint8(maxRGB*fraction), 0, uint8(maxRGB-maxRGB*fraction))
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}
	return c.ToHEX().String(), nil
}
