package desc

import (
	"fmt"
	"sort"
)

// Overlay describes a marker or popup: a DOM overlay positioned by the
// engine. Class and Style are merged onto the engine container.
type Overlay struct {
	Position LngLat
	Options  Object
	Class    []string
	Style    map[string]string
}

// DecodeOverlay reads position, options, class and style props.
func DecodeOverlay(props Object) (Overlay, error) {
	var ov Overlay
	if v, ok := props["position"]; ok {
		p, err := DecodeLngLat(v)
		if err != nil {
			return Overlay{}, fmt.Errorf("position: %w", err)
		}
		ov.Position = p
	} else {
		return Overlay{}, fmt.Errorf("missing position")
	}
	if o, ok := props.Object("options"); ok {
		opts, err := NormalizeObject(o)
		if err != nil {
			return Overlay{}, fmt.Errorf("options: %w", err)
		}
		ov.Options = opts
	}
	class, err := decodeStrings(props["class"])
	if err != nil {
		return Overlay{}, fmt.Errorf("class: %w", err)
	}
	ov.Class = class
	if s, ok := props.Object("style"); ok {
		ov.Style = make(map[string]string, len(s))
		for k, v := range s {
			str, ok := v.(string)
			if !ok {
				return Overlay{}, fmt.Errorf("style %q: expected string, got %T", k, v)
			}
			ov.Style[k] = str
		}
	}
	return ov, nil
}

// Event describes an engine event subscription. Layer is optional.
type Event struct {
	Event    string
	Layer    string
	Listener any
}

// DecodeEvent reads event, layer and listener props.
func DecodeEvent(props Object) (Event, error) {
	ev := Event{
		Event:    props.StringOr("event", ""),
		Layer:    props.StringOr("layer", ""),
		Listener: props["listener"],
	}
	if ev.Event == "" {
		return Event{}, fmt.Errorf("missing event")
	}
	return ev, nil
}

// ImageSet maps image names to URLs.
type ImageSet map[string]string

// Names returns the image names, sorted.
func (s ImageSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DecodeImageSet reads the images prop.
func DecodeImageSet(props Object) (ImageSet, error) {
	o, ok := props.Object("images")
	if !ok {
		if _, present := props["images"]; present {
			return nil, fmt.Errorf("images must be a mapping")
		}
		return ImageSet{}, nil
	}
	set := make(ImageSet, len(o))
	for name, v := range o {
		url, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("image %q: expected url string, got %T", name, v)
		}
		set[name] = url
	}
	return set, nil
}
