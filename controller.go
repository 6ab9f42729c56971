package main

import "image"

// Placement is the image's position and fitted size before scale is applied.
// X and Y are the top-left offset in canvas coordinates.
type Placement struct {
	Resource image.Image
	X        float64
	Y        float64
	Width    float64
	Height   float64
}

// Ready reports whether an image has been loaded into the placement.
func (p Placement) Ready() bool {
	return p.Resource != nil
}

// DragState tracks an in-progress drag. HasLast is false until the first
// move after pointer-down has recorded a baseline.
type DragState struct {
	Active  bool
	LastX   float64
	LastY   float64
	HasLast bool
}

// Controller turns pointer events into placement updates. It has two
// states, idle and dragging.
type Controller struct {
	drag DragState
}

func (c *Controller) State() DragState {
	return c.drag
}

func (c *Controller) Dragging() bool {
	return c.drag.Active
}

// Down starts a drag. The first move afterwards only records a baseline.
func (c *Controller) Down() {
	c.drag = DragState{Active: true}
}

func (c *Controller) Up() {
	c.drag = DragState{}
}

// Move applies a pointer move to the placement and reports whether the
// placement changed. Moves while idle or before an image is placed are
// ignored.
func (c *Controller) Move(p *Placement, pointerX, pointerY float64, solver Solver) bool {
	if !c.drag.Active || !p.Ready() {
		return false
	}

	if !c.drag.HasLast {
		c.drag.LastX, c.drag.LastY, c.drag.HasLast = pointerX, pointerY, true
		return false
	}

	dx := c.drag.LastX - pointerX
	dy := c.drag.LastY - pointerY
	bx, by := solver.Solve(*p, p.X-dx, p.Y-dy)

	moved := bx.Position != p.X || by.Position != p.Y
	p.X, p.Y = bx.Position, by.Position
	c.drag.LastX, c.drag.LastY = pointerX, pointerY
	return moved
}
