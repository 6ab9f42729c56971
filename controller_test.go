package main

import (
	"image/color"
	"testing"
)

func wideSolver(policy BoundPolicy, scale float64) (Solver, Placement) {
	dims := DefaultConfig().Dimensions()
	fit := FitCover(1000, 100, dims)
	p := Placement{
		Resource: createInMemoryImage(10, 1, color.RGBA{255, 0, 0, 255}),
		X:        25,
		Y:        25,
		Width:    fit.Width,
		Height:   fit.Height,
	}
	return Solver{Dims: dims, Scale: scale, Policy: policy}, p
}

func TestController_DragDeltaAccumulation(t *testing.T) {
	solver, p := wideSolver(BoundLegacy, 1)
	var c Controller

	c.Down()
	if !c.Dragging() {
		t.Fatal("controller should be dragging after Down")
	}

	if c.Move(&p, 50, 50, solver) {
		t.Error("first move should only record a baseline")
	}
	if p.X != 25 || p.Y != 25 {
		t.Errorf("first move changed placement to (%v, %v)", p.X, p.Y)
	}

	steps := []struct {
		px, py    float64
		wantX     float64
		wantY     float64
		wantMoved bool
	}{
		{40, 50, 15, 25, true},
		{30, 50, 5, 25, true},
		{35, 60, 10, 25, true},  // y is pinned by the near edge
		{35, 40, 10, 25, false}, // y is pinned by the far edge
		{-965, 40, -990, 25, true},
	}
	for i, step := range steps {
		moved := c.Move(&p, step.px, step.py, solver)
		if moved != step.wantMoved || p.X != step.wantX || p.Y != step.wantY {
			t.Errorf("step %d: got (%v, %v) moved=%v, want (%v, %v) moved=%v",
				i, p.X, p.Y, moved, step.wantX, step.wantY, step.wantMoved)
		}
	}
}

func TestController_ClampsAtFarEdge(t *testing.T) {
	solver, p := wideSolver(BoundLegacy, 1)
	var c Controller

	c.Down()
	c.Move(&p, 0, 0, solver)
	c.Move(&p, -5000, 0, solver)

	if p.X != -1775 {
		t.Errorf("X: got %v, want -1775", p.X)
	}
}

func TestController_IgnoresMovesWhileIdle(t *testing.T) {
	solver, p := wideSolver(BoundLegacy, 1)
	var c Controller

	if c.Move(&p, 10, 10, solver) || c.Move(&p, 100, 100, solver) {
		t.Error("moves while idle should be ignored")
	}
	if p.X != 25 || p.Y != 25 {
		t.Errorf("idle moves changed placement to (%v, %v)", p.X, p.Y)
	}

	c.Down()
	c.Move(&p, 0, 0, solver)
	c.Move(&p, -10, 0, solver)
	c.Up()
	if c.Dragging() {
		t.Fatal("controller should be idle after Up")
	}
	if c.Move(&p, -100, 0, solver) {
		t.Error("move after Up should be ignored")
	}
	if p.X != 15 {
		t.Errorf("X: got %v, want 15", p.X)
	}
}

func TestController_NewDragResetsBaseline(t *testing.T) {
	solver, p := wideSolver(BoundLegacy, 1)
	var c Controller

	c.Down()
	c.Move(&p, 0, 0, solver)
	c.Move(&p, -10, 0, solver)
	c.Up()

	c.Down()
	if c.State().HasLast {
		t.Fatal("Down should clear the last pointer position")
	}
	if c.Move(&p, 500, 500, solver) {
		t.Error("first move of a new drag should not jump")
	}
	if p.X != 15 {
		t.Errorf("X: got %v, want 15", p.X)
	}
}

func TestController_IgnoresMovesBeforeImage(t *testing.T) {
	solver, _ := wideSolver(BoundLegacy, 1)
	var p Placement
	var c Controller

	c.Down()
	c.Move(&p, 0, 0, solver)
	if c.Move(&p, 10, 10, solver) {
		t.Error("move without an image should be ignored")
	}
	if p.X != 0 || p.Y != 0 || p.Ready() {
		t.Errorf("placement changed without an image: %+v", p)
	}
}

func TestController_ZeroPointerCoordinates(t *testing.T) {
	solver, p := wideSolver(BoundLegacy, 1)
	var c Controller

	c.Down()
	c.Move(&p, 0, 0, solver)
	if !c.Move(&p, -20, 0, solver) {
		t.Error("move from a zero baseline should apply")
	}
	if p.X != 5 {
		t.Errorf("X: got %v, want 5", p.X)
	}
}
