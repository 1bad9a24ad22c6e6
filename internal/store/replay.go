package store

import (
	"context"
	"fmt"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/diff"
	"github.com/roach88/mapbind/internal/mapengine"
)

// ReplayStats counts what a replay applied and skipped.
type ReplayStats struct {
	Applied int
	Skipped int
}

// Replay re-issues the style calls of a journaled session against m, in
// seq order. Overlay, listener and engine lifecycle calls are skipped:
// their payloads (content nodes, functions) are not journaled.
//
// Replay stops at the first call the engine rejects.
func (s *Store) Replay(ctx context.Context, id string, m mapengine.Map) (ReplayStats, error) {
	_, calls, err := s.ReadSession(ctx, id)
	if err != nil {
		return ReplayStats{}, fmt.Errorf("replay: %w", err)
	}
	var stats ReplayStats
	for _, c := range calls {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		applied, err := replayCall(m, c)
		if err != nil {
			return stats, fmt.Errorf("replay seq %d (%s %s): %w", c.Seq, c.Op, c.Target, err)
		}
		if applied {
			stats.Applied++
		} else {
			stats.Skipped++
		}
	}
	return stats, nil
}

func replayCall(m mapengine.Map, c mapengine.Call) (bool, error) {
	a := c.Args
	switch c.Op {
	case mapengine.OpAddSource:
		spec, _ := a.Object("spec")
		return true, m.AddSource(c.Target, spec)
	case mapengine.OpRemoveSource:
		return true, m.RemoveSource(c.Target)
	case mapengine.OpAddLayer:
		spec, _ := a.Object("spec")
		return true, m.AddLayer(spec, a.StringOr("before", ""))
	case mapengine.OpRemoveLayer:
		return true, m.RemoveLayer(c.Target)
	case mapengine.OpAddImage:
		w, _ := a.Float("width")
		h, _ := a.Float("height")
		img := mapengine.Image{URL: a.StringOr("url", ""), Width: int(w), Height: int(h)}
		return true, m.AddImage(c.Target, img)
	case mapengine.OpRemoveImage:
		m.RemoveImage(c.Target)
		return true, nil
	}

	call, err := diffCall(c)
	if err != nil || call == nil {
		return false, err
	}
	return true, diff.Apply(m, []diff.Call{call})
}

// diffCall maps update ops onto the calls the diff engine issues.
func diffCall(c mapengine.Call) (diff.Call, error) {
	a := c.Args
	switch c.Op {
	case mapengine.OpSetLayout:
		return diff.SetLayout{Layer: c.Target, Name: a.StringOr("name", ""), Value: a["value"]}, nil
	case mapengine.OpSetPaint:
		return diff.SetPaint{Layer: c.Target, Name: a.StringOr("name", ""), Value: a["value"]}, nil
	case mapengine.OpSetFilter:
		return diff.SetFilter{Layer: c.Target, Filter: a["filter"]}, nil
	case mapengine.OpSetZoomRange:
		lo, _ := a.Float("minzoom")
		hi, _ := a.Float("maxzoom")
		return diff.SetZoomRange{Layer: c.Target, MinZoom: lo, MaxZoom: hi}, nil
	case mapengine.OpAssignLayer:
		return diff.AssignFields{Layer: c.Target, Fields: a.Clone()}, nil
	case mapengine.OpTriggerRepaint:
		return diff.Repaint{}, nil
	case mapengine.OpMoveLayer:
		return diff.MoveLayer{Layer: c.Target, Before: a.StringOr("before", "")}, nil
	case mapengine.OpSetData:
		return diff.SetData{Source: c.Target, Data: a["data"]}, nil
	case mapengine.OpSetCoordinates:
		q, err := desc.DecodeQuad(a["coordinates"])
		if err != nil {
			return nil, err
		}
		return diff.SetCoordinates{Source: c.Target, Coordinates: q}, nil
	case mapengine.OpPlay, mapengine.OpPause:
		return diff.SetAnimation{Source: c.Target, Playing: c.Op == mapengine.OpPlay}, nil
	case mapengine.OpUpdateImage:
		q, err := desc.DecodeQuad(a["coordinates"])
		if err != nil {
			return nil, err
		}
		return diff.UpdateImage{Source: c.Target, URL: a.StringOr("url", ""), Coordinates: q}, nil
	}
	return nil, nil
}
