package main

import (
	"fmt"
	"math"
)

// Clamp reports which rule, if any, moved a position while bounding it.
// Zero is a legitimate position, so "no clamp" is carried here and never
// inferred from the value.
type Clamp int

const (
	Unclamped Clamp = iota
	// ClampedCenter snaps the image back to its centered rest position.
	ClampedCenter
	// ClampedFar keeps the right/bottom edge of the image covered.
	ClampedFar
	// ClampedNear keeps the left/top edge of the image covered.
	ClampedNear
)

func (c Clamp) String() string {
	switch c {
	case Unclamped:
		return "unclamped"
	case ClampedCenter:
		return "center"
	case ClampedFar:
		return "far"
	case ClampedNear:
		return "near"
	}
	return fmt.Sprintf("clamp(%d)", int(c))
}

// Bound is the result of bounding one axis.
type Bound struct {
	Position float64
	Clamp    Clamp
}

// BoundPolicy selects how stored positions are bounded.
type BoundPolicy string

const (
	// BoundLegacy applies the near/far rules to the stored position
	// directly. After a scale change the stored bounds disagree with the
	// painted rectangle by the centering diff, so part of the drag range
	// is dead and part of the image is unreachable.
	BoundLegacy BoundPolicy = "legacy"
	// BoundCentered bounds the stored position in the same frame the
	// paint rectangle uses, so every accepted position is painted as is.
	BoundCentered BoundPolicy = "centered"
)

func (p BoundPolicy) valid() bool {
	return p == BoundLegacy || p == BoundCentered
}

// Axis holds the fixed inputs for bounding positions along one axis.
type Axis struct {
	Size    float64 // unscaled fitted size
	Scale   float64
	Content int
	Border  int
}

// BoundAxis bounds a stored position along one axis under the given policy.
func BoundAxis(policy BoundPolicy, position float64, axis Axis) Bound {
	if policy == BoundCentered {
		return boundCentered(position, axis)
	}
	return boundLegacy(position, axis)
}

// boundLegacy evaluates the rules in order and the first match wins.
func boundLegacy(position float64, a Axis) Bound {
	border := float64(a.Border)
	diff := math.Ceil((a.Size*a.Scale - a.Size) / 2)
	farBound := math.Ceil(-a.Size*a.Scale + float64(a.Content) + border)
	nearBound := border

	switch {
	case position-diff >= border:
		return Bound{Position: border + diff, Clamp: ClampedCenter}
	case position < farBound:
		return Bound{Position: farBound, Clamp: ClampedFar}
	case position > nearBound:
		return Bound{Position: nearBound, Clamp: ClampedNear}
	}
	return Bound{Position: position, Clamp: Unclamped}
}

func boundCentered(position float64, a Axis) Bound {
	border := float64(a.Border)
	scaled := a.Size * a.Scale
	diff := (scaled - a.Size) / 2
	nearBound := border + diff
	farBound := float64(a.Content) + border - scaled + diff

	switch {
	case position > nearBound:
		return Bound{Position: nearBound, Clamp: ClampedNear}
	case position < farBound:
		return Bound{Position: farBound, Clamp: ClampedFar}
	}
	return Bound{Position: position, Clamp: Unclamped}
}

// Solver bounds placements for one configuration snapshot.
type Solver struct {
	Dims   Dimensions
	Scale  float64
	Policy BoundPolicy
}

func (s Solver) axisX(p Placement) Axis {
	return Axis{Size: p.Width, Scale: s.Scale, Content: s.Dims.Width, Border: s.Dims.Border}
}

func (s Solver) axisY(p Placement) Axis {
	return Axis{Size: p.Height, Scale: s.Scale, Content: s.Dims.Height, Border: s.Dims.Border}
}

// Solve bounds a candidate top-left position for the placement's image.
func (s Solver) Solve(p Placement, x, y float64) (Bound, Bound) {
	return BoundAxis(s.Policy, x, s.axisX(p)), BoundAxis(s.Policy, y, s.axisY(p))
}
