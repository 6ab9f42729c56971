package main

import (
	"errors"
	"fmt"
)

var (
	errUnknownPointerType   = errors.New("unknown pointer event type")
	errNoPointerCoordinates = errors.New("pointer event carries no coordinates")
)

type PointerKind int

const (
	PointerDown PointerKind = iota + 1
	PointerMove
	PointerUp
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	}
	return fmt.Sprintf("pointer(%d)", int(k))
}

// PointerEvent is a device-independent pointer sample.
type PointerEvent struct {
	Kind PointerKind
	X    float64
	Y    float64
}

// Touch is one entry of a browser touch list.
type Touch struct {
	PageX float64 `json:"pageX"`
	PageY float64 `json:"pageY"`
}

// RawPointer is the event payload posted by the browser shim. Mouse events
// carry clientX/clientY, touch events carry targetTouches.
type RawPointer struct {
	Type          string  `json:"type"`
	ClientX       float64 `json:"clientX"`
	ClientY       float64 `json:"clientY"`
	TargetTouches []Touch `json:"targetTouches"`
}

var pointerKinds = map[string]PointerKind{
	"mousedown":   PointerDown,
	"touchstart":  PointerDown,
	"pointerdown": PointerDown,
	"mousemove":   PointerMove,
	"touchmove":   PointerMove,
	"pointermove": PointerMove,
	"mouseup":     PointerUp,
	"touchend":    PointerUp,
	"touchcancel": PointerUp,
	"pointerup":   PointerUp,
}

func isTouchEvent(eventType string) bool {
	switch eventType {
	case "touchstart", "touchmove", "touchend", "touchcancel":
		return true
	}
	return false
}

// Normalize extracts exactly one coordinate pair from the raw event.
// Touch events use the first target touch; up events need no coordinates.
func (r RawPointer) Normalize() (PointerEvent, error) {
	kind, ok := pointerKinds[r.Type]
	if !ok {
		return PointerEvent{}, fmt.Errorf("%w: %q", errUnknownPointerType, r.Type)
	}

	ev := PointerEvent{Kind: kind}
	if !isTouchEvent(r.Type) {
		ev.X, ev.Y = r.ClientX, r.ClientY
		return ev, nil
	}

	if len(r.TargetTouches) == 0 {
		if kind == PointerUp {
			return ev, nil
		}
		return PointerEvent{}, fmt.Errorf("%w: %s", errNoPointerCoordinates, r.Type)
	}
	ev.X, ev.Y = r.TargetTouches[0].PageX, r.TargetTouches[0].PageY
	return ev, nil
}
