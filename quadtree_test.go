package main

import (
	"fmt"
	"sort"
	"testing"
)

func unitIDs(units []*Unit) []string {
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	sort.Strings(ids)
	return ids
}

func TestQuadtreeQueryMatchesBruteForce(t *testing.T) {
	var units []*Unit
	for i := 0; i < 400; i++ {
		units = append(units, &Unit{
			ID:  fmt.Sprintf("u%d", i),
			Pos: Position{X: randFloat() * 1200, Y: randFloat() * 800},
		})
	}
	qt := BuildQuadtree(units, 4, 50)
	if qt.Len() != len(units) {
		t.Fatalf("expected %d indexed units, got %d", len(units), qt.Len())
	}

	for i := 0; i < 50; i++ {
		rng := RectAround(Position{X: randFloat() * 1200, Y: randFloat() * 800}, 20+randFloat()*200)

		var want []*Unit
		for _, u := range units {
			if rng.Contains(u.Pos) {
				want = append(want, u)
			}
		}
		got := qt.Query(rng, nil)

		w, g := unitIDs(want), unitIDs(got)
		if len(w) != len(g) {
			t.Fatalf("query %d: expected %d units, got %d", i, len(w), len(g))
		}
		for j := range w {
			if w[j] != g[j] {
				t.Fatalf("query %d: mismatch at %d: %s vs %s", i, j, w[j], g[j])
			}
		}
	}
}

func TestQuadtreeRejectsOutsidePoints(t *testing.T) {
	qt := NewQuadtree(Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}, 2)

	if qt.Insert(&Unit{ID: "out", Pos: Position{X: 150, Y: 50}}) {
		t.Error("point outside bounds should be rejected")
	}
	if qt.Insert(&Unit{ID: "edge", Pos: Position{X: 100, Y: 50}}) {
		t.Error("max edge is exclusive")
	}
	if !qt.Insert(&Unit{ID: "in", Pos: Position{X: 0, Y: 0}}) {
		t.Error("min edge is inclusive")
	}
	if qt.Len() != 1 {
		t.Errorf("expected 1 unit, got %d", qt.Len())
	}
}

func TestQuadtreeSubdivides(t *testing.T) {
	qt := NewQuadtree(Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}, 1)
	for i := 0; i < 10; i++ {
		qt.Insert(&Unit{ID: fmt.Sprintf("u%d", i), Pos: Position{X: float64(i * 10), Y: float64(i * 10)}})
	}
	if qt.Len() != 10 {
		t.Fatalf("expected 10 units, got %d", qt.Len())
	}
	got := qt.Query(Rect{MinX: 0, MinY: 0, MaxX: 25, MaxY: 25}, nil)
	if len(got) != 3 {
		t.Errorf("expected 3 units in corner, got %d", len(got))
	}
}

func TestQuadtreeStackedPoints(t *testing.T) {
	var units []*Unit
	for i := 0; i < 50; i++ {
		units = append(units, &Unit{ID: fmt.Sprintf("u%d", i), Pos: Position{X: 10, Y: 10}})
	}
	qt := BuildQuadtree(units, 2, 50)
	if qt.Len() != 50 {
		t.Fatalf("stacked units should all be kept, got %d", qt.Len())
	}
	if got := qt.Query(RectAround(Position{X: 10, Y: 10}, 1), nil); len(got) != 50 {
		t.Errorf("expected 50 units at the stack, got %d", len(got))
	}
}

func TestBuildQuadtreeEmpty(t *testing.T) {
	qt := BuildQuadtree(nil, 8, 50)
	if qt.Len() != 0 {
		t.Errorf("expected empty tree, got %d", qt.Len())
	}
	if got := qt.Query(RectAround(Position{}, 100), nil); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestBuildQuadtreePadsBounds(t *testing.T) {
	units := []*Unit{
		{ID: "a", Pos: Position{X: 100, Y: 200}},
		{ID: "b", Pos: Position{X: 300, Y: 50}},
	}
	qt := BuildQuadtree(units, 8, 50)
	want := Rect{MinX: 50, MinY: 0, MaxX: 350, MaxY: 250}
	if qt.Bounds() != want {
		t.Errorf("expected bounds %+v, got %+v", want, qt.Bounds())
	}
}
