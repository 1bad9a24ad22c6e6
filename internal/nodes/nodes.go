// Package nodes implements the declarative node kinds a composing
// application uses: the map root and every scene node bound to it.
package nodes

import (
	"fmt"

	"github.com/roach88/mapbind/internal/bind"
	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/host"
	"github.com/roach88/mapbind/internal/ident"
	"github.com/roach88/mapbind/internal/mapengine"
	"github.com/roach88/mapbind/internal/scope"
)

// Context keys published by map and source nodes.
var (
	EngineKey       = scope.NewKey[mapengine.Map]("engine")
	ParentEntityKey = scope.NewKey[string]("parent_entity_id")
)

// Node kinds.
const (
	KindMap           = "map"
	KindEvent         = "event"
	KindImages        = "images"
	KindSource        = "source"
	KindGeoJSONSource = "geojson-source"
	KindCanvasSource  = "canvas-source"
	KindImageSource   = "image-source"
	KindVideoSource   = "video-source"
	KindLayer         = "layer"
	KindMarker        = "marker"
	KindPopup         = "popup"
)

// Kinds lists every node kind.
func Kinds() []string {
	return []string{
		KindMap, KindEvent, KindImages, KindSource, KindGeoJSONSource,
		KindCanvasSource, KindImageSource, KindVideoSource, KindLayer,
		KindMarker, KindPopup,
	}
}

// sourceNodeKinds maps source node kinds to the source kind they fix. The
// generic source kind reads its type from props.
var sourceNodeKinds = map[string]desc.SourceKind{
	KindSource:        "",
	KindGeoJSONSource: desc.KindGeoJSON,
	KindCanvasSource:  desc.KindCanvas,
	KindImageSource:   desc.KindImage,
	KindVideoSource:   desc.KindVideo,
}

// SourceKindOf reports whether kind is a source node kind and which source
// kind it fixes, if any.
func SourceKindOf(kind string) (desc.SourceKind, bool) {
	k, ok := sourceNodeKinds[kind]
	return k, ok
}

// Sourceless reports whether layers of type typ draw without a source.
func Sourceless(typ string) bool {
	return typ == "background" || typ == "sky"
}

// Config carries what node kinds need beyond their props.
type Config struct {
	// Factory builds the engine of every map node.
	Factory mapengine.Factory
	// Listeners resolves string listener props of event nodes.
	Listeners map[string]mapengine.Listener
	// Allocator names anonymous entities. Defaults to a fresh allocator.
	Allocator *ident.Allocator
}

func (c *Config) allocate() string {
	return c.Allocator.Allocate()
}

// entityID returns the caller supplied id, or a generated one when id is
// empty. Caller ids may not use the generated prefix.
func (c *Config) entityID(kind, id string) (string, error) {
	if id == "" {
		return c.allocate(), nil
	}
	if ident.Reserved(id) {
		return "", fmt.Errorf("%s id %q: prefix %q is reserved for generated ids", kind, id, ident.Prefix)
	}
	return id, nil
}

// Register adds every node kind to reg.
func Register(reg host.Registry, cfg Config) {
	if cfg.Allocator == nil {
		cfg.Allocator = ident.NewAllocator()
	}
	c := &cfg
	reg.Register(KindMap, func() host.Component { return &mapNode{cfg: c} })
	reg.Register(KindEvent, func() host.Component { return &eventNode{cfg: c} })
	reg.Register(KindImages, func() host.Component { return &imagesNode{} })
	for kind, forced := range sourceNodeKinds {
		reg.Register(kind, func() host.Component { return &sourceNode{cfg: c, forced: forced} })
	}
	reg.Register(KindLayer, func() host.Component { return &layerNode{cfg: c} })
	reg.Register(KindMarker, func() host.Component { return &overlayNode{cfg: c} })
	reg.Register(KindPopup, func() host.Component { return &overlayNode{cfg: c, popup: true} })
}

// NewRegistry returns a registry with every node kind.
func NewRegistry(cfg Config) host.Registry {
	reg := host.Registry{}
	Register(reg, cfg)
	return reg
}

func envFor(ctx *host.Context) (bind.Env, error) {
	m, err := host.Use(ctx, EngineKey)
	if err != nil {
		return bind.Env{}, err
	}
	return bind.Env{Map: m, Logger: ctx.Logger(), Trace: ctx.Trace}, nil
}

// nameFor is the entity name of a node without an explicit id.
func nameFor(ctx *host.Context, cfg *Config) string {
	if k := ctx.Key(); k != "" {
		return k
	}
	return cfg.allocate()
}

func wrapDecode(kind string, err error) error {
	return fmt.Errorf("decode %s: %w", kind, err)
}
