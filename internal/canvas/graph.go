package canvas

import "github.com/rpattn/canvasdb/internal/domain"

// chain is the linear path from a start node following first outgoing edges.
type chain []domain.Node

// plan resolves the graph into chains, one per start node, in the order the
// start nodes appear in nodes. Only the first outgoing edge of a node (in
// edge order) is followed; further edges of a fan-out node are ignored.
func plan(nodes []domain.Node, edges []domain.Edge) ([]chain, error) {
	index := make(map[string]int, len(nodes))
	for i, node := range nodes {
		if _, dup := index[node.ID]; dup {
			return nil, &GraphError{Kind: KindDuplicateNode, NodeID: node.ID}
		}
		index[node.ID] = i
	}

	incoming := make(map[string]struct{}, len(edges))
	firstOut := make(map[string]string, len(edges))
	for _, edge := range edges {
		if _, ok := index[edge.Source]; !ok {
			return nil, &GraphError{Kind: KindDanglingEdge, EdgeID: edge.ID, NodeID: edge.Source}
		}
		if _, ok := index[edge.Target]; !ok {
			return nil, &GraphError{Kind: KindDanglingEdge, EdgeID: edge.ID, NodeID: edge.Target}
		}
		incoming[edge.Target] = struct{}{}
		if _, seen := firstOut[edge.Source]; !seen {
			firstOut[edge.Source] = edge.Target
		}
	}

	var chains []chain
	for _, node := range nodes {
		if _, ok := incoming[node.ID]; ok {
			continue
		}
		c := chain{node}
		visited := map[string]struct{}{node.ID: {}}
		for current := node.ID; ; {
			next, ok := firstOut[current]
			if !ok {
				break
			}
			if _, seen := visited[next]; seen {
				return nil, &GraphError{Kind: KindCycle, NodeID: next}
			}
			visited[next] = struct{}{}
			c = append(c, nodes[index[next]])
			current = next
		}
		chains = append(chains, c)
	}

	if len(chains) == 0 {
		return nil, &GraphError{Kind: KindNoStartNode}
	}
	return chains, nil
}
