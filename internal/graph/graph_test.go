package graph

import (
	"context"
	"errors"
	"testing"
)

type counterState struct {
	count int
	label string
}

func TestGraph_StaticChain(t *testing.T) {
	g, err := NewBuilder[counterState]().
		Entry("a").
		AddNode("a", func(_ context.Context, s counterState) (counterState, error) {
			s.count++
			return s, nil
		}).
		AddStaticEdge("a", "b").
		AddNode("b", func(_ context.Context, s counterState) (counterState, error) {
			s.count++
			return s, nil
		}).
		AddStaticEdge("b", "end").
		AddSink("end").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	out, err := g.Run(context.Background(), counterState{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.count != 2 {
		t.Fatalf("expected count=2, got %d", out.count)
	}
}

func TestGraph_ConditionalEdge(t *testing.T) {
	g, err := NewBuilder[counterState]().
		Entry("route").
		AddNode("route", func(_ context.Context, s counterState) (counterState, error) {
			return s, nil
		}).
		AddConditionalEdge("route", func(s counterState) string {
			if s.count > 0 {
				return "high"
			}
			return "low"
		}, map[string]string{"high": "end_high", "low": "end_low"}).
		AddSink("end_high").
		AddSink("end_low").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := g.Run(context.Background(), counterState{count: 1}); err != nil {
		t.Fatalf("run high branch: %v", err)
	}
	if _, err := g.Run(context.Background(), counterState{count: 0}); err != nil {
		t.Fatalf("run low branch: %v", err)
	}
}

func TestGraph_ConditionalEdgeUnknownBranchErrors(t *testing.T) {
	g, err := NewBuilder[counterState]().
		Entry("route").
		AddNode("route", func(_ context.Context, s counterState) (counterState, error) {
			return s, nil
		}).
		AddConditionalEdge("route", func(counterState) string {
			return "nowhere"
		}, map[string]string{"somewhere": "end"}).
		AddSink("end").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := g.Run(context.Background(), counterState{}); err == nil {
		t.Fatal("expected error for unmapped branch label")
	}
}

func TestGraph_NodeErrorSurfacesToCaller(t *testing.T) {
	wantErr := errors.New("boom")
	g, err := NewBuilder[counterState]().
		Entry("a").
		AddNode("a", func(_ context.Context, s counterState) (counterState, error) {
			return s, wantErr
		}).
		AddStaticEdge("a", "end").
		AddSink("end").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	_, err = g.Run(context.Background(), counterState{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected error to surface unmodified, got %v", err)
	}
}

func TestGraph_NoReentry(t *testing.T) {
	visits := map[string]int{}
	g, err := NewBuilder[counterState]().
		Entry("a").
		AddNode("a", func(_ context.Context, s counterState) (counterState, error) {
			visits["a"]++
			return s, nil
		}).
		AddStaticEdge("a", "b").
		AddNode("b", func(_ context.Context, s counterState) (counterState, error) {
			visits["b"]++
			return s, nil
		}).
		AddStaticEdge("b", "end").
		AddSink("end").
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := g.Run(context.Background(), counterState{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if visits["a"] != 1 || visits["b"] != 1 {
		t.Fatalf("expected each node visited exactly once, got %v", visits)
	}
}

func TestBuild_RejectsMissingEntry(t *testing.T) {
	_, err := NewBuilder[counterState]().Build()
	if err == nil {
		t.Fatal("expected error for missing entry")
	}
}

func TestBuild_RejectsNodeWithNoEdge(t *testing.T) {
	_, err := NewBuilder[counterState]().
		Entry("a").
		AddNode("a", func(_ context.Context, s counterState) (counterState, error) { return s, nil }).
		Build()
	if err == nil {
		t.Fatal("expected error for node with no outgoing edge")
	}
}
