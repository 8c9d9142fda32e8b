package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/sweetpotato0/legalrag/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NodeType represents the type of a node in the graph
type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeEnd       NodeType = "end"
	NodeTypeStage     NodeType = "stage"
	NodeTypeCondition NodeType = "condition"
)

// VisitedKey is the state key under which Execute records the visited node names in order.
const VisitedKey = "__graph_visited"

// State represents the execution state passed between nodes
type State map[string]any

// NodeFunc is the function executed by a node
type NodeFunc func(context.Context, State) (State, error)

// ConditionFunc evaluates a condition and returns a route key looked up in NextMap
type ConditionFunc func(context.Context, State) (string, error)

// Observer is notified after every node completes.
type Observer func(node string, elapsed time.Duration, err error)

// Node represents a node in the execution graph
type Node struct {
	Name      string
	Type      NodeType
	Execute   NodeFunc
	Condition ConditionFunc     // Only for condition nodes
	Next      string            // Outgoing edge for non-condition nodes
	NextMap   map[string]string // For condition nodes: route key -> next node
}

// Graph is a directed state machine executed one node at a time.
type Graph struct {
	nodes     map[string]*Node
	order     []string
	startNode string
	endNode   string
	maxVisits int
	observer  Observer
	tracer    trace.Tracer
}

// NewGraph creates a new graph
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		maxVisits: 10,
		tracer:    telemetry.Tracer("github.com/sweetpotato0/legalrag/graph"),
	}
}

func (g *Graph) validateNode(node *Node) {
	if node.Name == "" {
		panic("node name cannot be empty")
	}

	switch node.Type {
	case NodeTypeCondition:
		if node.Condition == nil {
			panic(fmt.Sprintf("condition node %s must have non-nil Condition function", node.Name))
		}
	case NodeTypeStage:
		if node.Execute == nil {
			panic(fmt.Sprintf("node %s of type %s must have non-nil Execute function", node.Name, node.Type))
		}
	}
}

// AddNode adds a node to the graph
func (g *Graph) AddNode(node *Node) {
	if _, exists := g.nodes[node.Name]; exists {
		panic(fmt.Sprintf("node %s already exists", node.Name))
	}

	g.validateNode(node)

	g.nodes[node.Name] = node
	g.order = append(g.order, node.Name)

	if node.Type == NodeTypeStart {
		g.startNode = node.Name
	}
	if node.Type == NodeTypeEnd {
		g.endNode = node.Name
	}
}

// SetStartNode sets the start node
func (g *Graph) SetStartNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	g.startNode = name
}

// SetEndNode sets the end node
func (g *Graph) SetEndNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	g.endNode = name
}

// SetMaxVisits sets the maximum number of visits to a node.
// A value of 1 makes any cycle an execution error.
func (g *Graph) SetMaxVisits(maxVisits int) {
	if maxVisits > 0 {
		g.maxVisits = maxVisits
	}
}

// SetObserver registers a callback invoked after each node.
func (g *Graph) SetObserver(obs Observer) {
	g.observer = obs
}

// GetNode returns a node by name
func (g *Graph) GetNode(name string) (*Node, error) {
	node, exists := g.nodes[name]
	if !exists {
		return nil, fmt.Errorf("node %s not found", name)
	}
	return node, nil
}

// Validate checks that the graph has start and end nodes and that every edge points at a
// registered node.
func (g *Graph) Validate() error {
	if g.startNode == "" {
		return fmt.Errorf("start node not set")
	}
	if g.endNode == "" {
		return fmt.Errorf("end node not set")
	}
	for _, name := range g.order {
		node := g.nodes[name]
		switch node.Type {
		case NodeTypeEnd:
			continue
		case NodeTypeCondition:
			if len(node.NextMap) == 0 {
				return fmt.Errorf("condition node %s has no routes", name)
			}
			for route, target := range node.NextMap {
				if _, ok := g.nodes[target]; !ok {
					return fmt.Errorf("route %q of node %s points at unknown node %s", route, name, target)
				}
			}
		default:
			if node.Next == "" {
				return fmt.Errorf("no next node specified for node %s", name)
			}
			if _, ok := g.nodes[node.Next]; !ok {
				return fmt.Errorf("node %s points at unknown node %s", name, node.Next)
			}
		}
	}
	return nil
}

// Execute runs the graph from the start node until the end node is reached.
// Exactly one node runs at a time; condition nodes pick the single outgoing edge.
// The names of visited nodes are appended to state[VisitedKey].
func (g *Graph) Execute(ctx context.Context, initialState State) (State, error) {
	if g.startNode == "" {
		return nil, fmt.Errorf("start node not set")
	}

	state := initialState
	if state == nil {
		state = make(State)
	}

	visits := make(map[string]int)
	current := g.startNode

	for {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, exists := g.nodes[current]
		if !exists {
			return nil, fmt.Errorf("node %s not found", current)
		}

		visits[current]++
		if visits[current] > g.maxVisits {
			return nil, fmt.Errorf("node %s visited more than %d times", current, g.maxVisits)
		}
		state[VisitedKey] = append(Visited(state), current)

		next, err := g.step(ctx, node, &state)
		if err != nil {
			return nil, err
		}
		if node.Type == NodeTypeEnd {
			return state, nil
		}
		current = next
	}
}

func (g *Graph) step(ctx context.Context, node *Node, state *State) (next string, err error) {
	ctx, span := g.tracer.Start(ctx, "graph."+node.Name, trace.WithAttributes(
		attribute.String("graph.node", node.Name),
		attribute.String("graph.node_type", string(node.Type)),
	))
	start := time.Now()
	defer func() {
		if g.observer != nil {
			g.observer(node.Name, time.Since(start), err)
		}
		telemetry.End(span, err)
	}()

	if node.Type == NodeTypeCondition {
		route, err := node.Condition(ctx, *state)
		if err != nil {
			return "", fmt.Errorf("error evaluating condition at node %s: %w", node.Name, err)
		}
		span.SetAttributes(attribute.String("graph.route", route))
		target := node.NextMap[route]
		if target == "" {
			return "", fmt.Errorf("no next node for route %q at node %s", route, node.Name)
		}
		return target, nil
	}

	if node.Execute != nil {
		out, err := node.Execute(ctx, *state)
		if err != nil {
			return "", fmt.Errorf("error executing node %s: %w", node.Name, err)
		}
		if out != nil {
			*state = out
		}
	}
	if node.Type == NodeTypeEnd {
		return "", nil
	}
	if node.Next == "" {
		return "", fmt.Errorf("no next node specified for node %s", node.Name)
	}
	return node.Next, nil
}

// Visited returns the node names recorded by Execute.
func Visited(state State) []string {
	path, _ := state[VisitedKey].([]string)
	return path
}

// Builder helps build graphs fluently
type Builder struct {
	graph *Graph
}

// NewBuilder creates a new graph builder
func NewBuilder() *Builder {
	return &Builder{
		graph: NewGraph(),
	}
}

// AddNode adds a node to the graph
func (b *Builder) AddNode(name string, nodeType NodeType, execute NodeFunc) *Builder {
	b.graph.AddNode(&Node{
		Name:    name,
		Type:    nodeType,
		Execute: execute,
	})
	return b
}

// AddConditionNode adds a condition node
func (b *Builder) AddConditionNode(name string, condition ConditionFunc, nextMap map[string]string) *Builder {
	b.graph.AddNode(&Node{
		Name:      name,
		Type:      NodeTypeCondition,
		Condition: condition,
		NextMap:   nextMap,
	})
	return b
}

// AddEdge connects two nodes. Non-condition nodes have a single outgoing edge.
func (b *Builder) AddEdge(from, to string) *Builder {
	node, exists := b.graph.nodes[from]
	if !exists {
		panic(fmt.Sprintf("node %s not found", from))
	}
	if node.Type == NodeTypeCondition {
		panic(fmt.Sprintf("condition node %s routes through NextMap", from))
	}
	if node.Next != "" && node.Next != to {
		panic(fmt.Sprintf("node %s already has edge to %s", from, node.Next))
	}
	node.Next = to
	return b
}

// SetStart sets the start node
func (b *Builder) SetStart(name string) *Builder {
	b.graph.SetStartNode(name)
	return b
}

// SetEnd sets the end node
func (b *Builder) SetEnd(name string) *Builder {
	b.graph.SetEndNode(name)
	return b
}

// SetMaxVisits sets the maximum number of visits to a node
func (b *Builder) SetMaxVisits(maxVisits int) *Builder {
	b.graph.SetMaxVisits(maxVisits)
	return b
}

// Build returns the constructed graph
func (b *Builder) Build() *Graph {
	return b.graph
}
