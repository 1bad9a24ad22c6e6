package mapengine

import (
	"context"

	"github.com/roach88/mapbind/internal/desc"
)

// Call is one recorded engine mutation.
type Call struct {
	Seq     int64
	Session string
	Op      string
	Target  string
	Args    desc.Object
}

// Recorder receives every engine mutation in call order.
type Recorder interface {
	RecordCall(ctx context.Context, c Call) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, c Call) error

func (f RecorderFunc) RecordCall(ctx context.Context, c Call) error {
	return f(ctx, c)
}

// Recorded engine operations.
const (
	OpCreate           = "create"
	OpRemove           = "remove"
	OpOn               = "on"
	OpOff              = "off"
	OpAddSource        = "add_source"
	OpRemoveSource     = "remove_source"
	OpSetData          = "set_data"
	OpSetCoordinates   = "set_coordinates"
	OpPlay             = "play"
	OpPause            = "pause"
	OpUpdateImage      = "update_image"
	OpAddLayer         = "add_layer"
	OpRemoveLayer      = "remove_layer"
	OpMoveLayer        = "move_layer"
	OpSetLayout        = "set_layout_property"
	OpSetPaint         = "set_paint_property"
	OpSetFilter        = "set_filter"
	OpSetZoomRange     = "set_layer_zoom_range"
	OpAssignLayer      = "assign_layer"
	OpTriggerRepaint   = "trigger_repaint"
	OpAddImage         = "add_image"
	OpRemoveImage      = "remove_image"
	OpMarkerCreate     = "marker_create"
	OpPopupCreate      = "popup_create"
	OpOverlaySetLngLat = "overlay_set_lnglat"
	OpOverlayAdd       = "overlay_add"
	OpOverlayRemove    = "overlay_remove"
)
