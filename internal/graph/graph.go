// Package graph implements the minimal state-graph executor that backs the
// Intake Pipeline and Support Router.
//
// A Graph is an immutable value assembled once at startup: nodes are a map
// from label to function value, edges are a small sum type (static or
// conditional). The executor is a simple loop with no mutable shared state,
// safe to invoke from many goroutines at once for different runs.
package graph

import (
	"context"
	"fmt"
)

// Node is an asynchronous step over a typed state value. The state is
// immutable from the node's perspective: a node returns a new value rather
// than mutating its input.
type Node[S any] func(ctx context.Context, state S) (S, error)

// Predicate decides which labeled branch a conditional edge takes, based on
// the state a node just returned.
type Predicate[S any] func(state S) string

// edgeKind distinguishes a static edge from a conditional one.
type edgeKind int

const (
	edgeStatic edgeKind = iota
	edgeConditional
)

type edge[S any] struct {
	kind      edgeKind
	next      string
	predicate Predicate[S]
	branches  map[string]string
}

// Graph is a finite set of named nodes, a distinguished entry node, a set of
// terminal sinks, and one edge (static or conditional) per non-sink node.
// Graph values are immutable once built and safe for concurrent use.
type Graph[S any] struct {
	entry string
	nodes map[string]Node[S]
	edges map[string]edge[S]
	sinks map[string]bool
}

// Builder assembles a Graph. It is not safe for concurrent use; build the
// graph once at startup and discard the builder.
type Builder[S any] struct {
	entry string
	nodes map[string]Node[S]
	edges map[string]edge[S]
	sinks map[string]bool
}

// NewBuilder creates an empty graph builder.
func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{
		nodes: make(map[string]Node[S]),
		edges: make(map[string]edge[S]),
		sinks: make(map[string]bool),
	}
}

// Entry declares the graph's entry node label.
func (b *Builder[S]) Entry(label string) *Builder[S] {
	b.entry = label
	return b
}

// AddNode registers a node under the given label.
func (b *Builder[S]) AddNode(label string, node Node[S]) *Builder[S] {
	b.nodes[label] = node
	return b
}

// AddSink marks a label as a terminal sink: the executor stops when control
// reaches it, without invoking any node function for it.
func (b *Builder[S]) AddSink(label string) *Builder[S] {
	b.sinks[label] = true
	return b
}

// AddStaticEdge forces node "from" to always transition to "to".
func (b *Builder[S]) AddStaticEdge(from, to string) *Builder[S] {
	b.edges[from] = edge[S]{kind: edgeStatic, next: to}
	return b
}

// AddConditionalEdge evaluates predicate against the state node "from" just
// returned, and dispatches to branches[predicate(state)].
func (b *Builder[S]) AddConditionalEdge(from string, predicate Predicate[S], branches map[string]string) *Builder[S] {
	b.edges[from] = edge[S]{kind: edgeConditional, predicate: predicate, branches: branches}
	return b
}

// Build validates and freezes the graph.
func (b *Builder[S]) Build() (*Graph[S], error) {
	if b.entry == "" {
		return nil, fmt.Errorf("graph: no entry node declared")
	}
	if _, ok := b.nodes[b.entry]; !ok && !b.sinks[b.entry] {
		return nil, fmt.Errorf("graph: entry node %q is not registered", b.entry)
	}
	for label := range b.nodes {
		if _, ok := b.edges[label]; !ok && !b.sinks[label] {
			return nil, fmt.Errorf("graph: node %q has no outgoing edge and is not a sink", label)
		}
	}
	return &Graph[S]{
		entry: b.entry,
		nodes: b.nodes,
		edges: b.edges,
		sinks: b.sinks,
	}, nil
}

// Run executes the graph from its entry node to a terminal sink,
// single-threaded per call. Each node is invoked at most once per run; there
// is no re-entry.
//
// An error returned by a node is not an ordinary edge: it is surfaced to the
// caller unmodified, without attempting recovery. Nodes are expected to
// catch their own I/O failures and translate them into a transition to a
// compensating node by returning state with a failure marker instead of an
// error.
func (g *Graph[S]) Run(ctx context.Context, initial S) (S, error) {
	state := initial
	current := g.entry
	visited := make(map[string]bool)

	for {
		if g.sinks[current] {
			return state, nil
		}

		node, ok := g.nodes[current]
		if !ok {
			return state, fmt.Errorf("graph: no node registered for label %q", current)
		}
		if visited[current] {
			return state, fmt.Errorf("graph: node %q reached a second time in one run", current)
		}
		visited[current] = true

		next, err := node(ctx, state)
		if err != nil {
			return next, err
		}
		state = next

		e, ok := g.edges[current]
		if !ok {
			return state, fmt.Errorf("graph: node %q has no outgoing edge", current)
		}

		switch e.kind {
		case edgeStatic:
			current = e.next
		case edgeConditional:
			branch := e.predicate(state)
			target, ok := e.branches[branch]
			if !ok {
				return state, fmt.Errorf("graph: conditional edge from %q has no branch %q", current, branch)
			}
			current = target
		default:
			return state, fmt.Errorf("graph: node %q has an edge of unknown kind", current)
		}
	}
}
