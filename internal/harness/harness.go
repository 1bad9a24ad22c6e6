package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/mapbind/internal/compiler"
	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/dom"
	"github.com/roach88/mapbind/internal/fault"
	"github.com/roach88/mapbind/internal/host"
	"github.com/roach88/mapbind/internal/ident"
	"github.com/roach88/mapbind/internal/mapengine"
	"github.com/roach88/mapbind/internal/mapengine/memmap"
	"github.com/roach88/mapbind/internal/nodes"
	"github.com/roach88/mapbind/internal/splice"
	"github.com/roach88/mapbind/internal/store"
	"github.com/roach88/mapbind/internal/testutil"
)

// quietPeriod is how long a settle step waits for the loop to stay empty.
const (
	quietPeriod   = 20 * time.Millisecond
	settleTimeout = 2 * time.Second
)

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	store  *store.Store
	logger *slog.Logger
}

// WithStore journals the run into st instead of a private in-memory
// store. The caller keeps ownership of st.
func WithStore(st *store.Store) Option {
	return func(c *runConfig) { c.store = st }
}

// WithLogger sets the logger handed to the host and the engine.
// Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a scenario and returns its result.
//
// Steps and assertions that fail are collected in Result.Errors; the
// returned error is reserved for setup failures (journal, tree compile).
//
// The run is deterministic:
//   - a logical clock starting at zero stamps every engine call
//   - ids come from an allocator with fixed randomness
//   - the session id comes from the scenario
func Run(s *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()

	doc, treeHash, err := loadTree(s)
	if err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}

	st := cfg.store
	if st == nil {
		st, err = store.Open(store.MemoryPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		defer st.Close()
	}

	session := s.Session
	if session == "" {
		session = DefaultSession
	}
	if err := st.BeginSession(ctx, store.Session{ID: session, Label: s.Name, TreeHash: treeHash}); err != nil {
		return nil, err
	}

	h := newHarness(s, st, session, cfg.logger)
	h.doc = doc
	result := NewResult()
	result.Session = session

	for i, step := range s.Steps {
		h.execute(i, step, result)
	}

	if err := h.capture(ctx, result); err != nil {
		return nil, err
	}
	if err := st.EndSession(ctx, session, h.clock.Current()); err != nil {
		return nil, err
	}

	for i, a := range s.Assertions {
		if err := EvaluateAssertion(a, result); err != nil {
			result.AddError(fmt.Sprintf("assertion %d (%s): %v", i+1, a.Type, err))
		}
	}

	if !h.unmounted {
		// Release what the scenario left mounted without journaling it.
		h.recording = false
		_ = h.root.Unmount()
	}

	return result, nil
}

// loadTree compiles the scenario tree and hashes its source form.
func loadTree(s *Scenario) (*compiler.Document, string, error) {
	if s.Document != "" {
		data, err := os.ReadFile(s.Document)
		if err != nil {
			return nil, "", err
		}
		doc, err := compiler.LoadBytes(s.Document, data)
		if err != nil {
			return nil, "", err
		}
		hash, err := desc.Hash("mapbind/document", string(data))
		return doc, hash, err
	}
	doc, err := compiler.FromValue(map[string]any{"tree": s.Tree})
	if err != nil {
		return nil, "", err
	}
	hash, err := desc.Hash("mapbind/tree", s.Tree)
	return doc, hash, err
}

// harness is the per-run state.
type harness struct {
	store   *store.Store
	session string
	clock   *ident.Clock

	body   *dom.Node
	root   *host.Root
	engine *memmap.Map
	trace  testutil.Trace

	tree      *host.Node
	doc       *compiler.Document
	failures  []error
	fired     map[string]int
	unmounted bool
	recording bool
}

func newHarness(s *Scenario, st *store.Store, session string, logger *slog.Logger) *harness {
	h := &harness{
		store:     st,
		session:   session,
		clock:     ident.NewClock(),
		body:      dom.NewElement("body"),
		fired:     make(map[string]int),
		recording: true,
	}
	recorder := mapengine.RecorderFunc(func(ctx context.Context, c mapengine.Call) error {
		if !h.recording {
			return nil
		}
		return st.RecordCall(ctx, c)
	})

	engineOpts := []memmap.Option{
		memmap.WithClock(h.clock),
		memmap.WithSession(session),
		memmap.WithRecorder(recorder),
		memmap.WithImageLoader(testutil.ImageLoader(s.FailingImages...)),
		memmap.WithLogger(logger),
	}
	if s.StyleLoaded {
		engineOpts = append(engineOpts, memmap.WithStyleLoaded())
	}

	listeners := make(map[string]mapengine.Listener, len(s.Listeners))
	for _, name := range s.Listeners {
		h.fired[name] = 0
		listeners[name] = func(mapengine.Event) { h.fired[name]++ }
	}

	cfg := nodes.Config{
		Factory: func(c *dom.Node, o desc.Object) (mapengine.Map, error) {
			h.engine = memmap.New(c, o, engineOpts...)
			return h.engine, nil
		},
		Listeners: listeners,
		Allocator: testutil.DeterministicAllocator(),
	}

	h.root = host.NewRoot(h.body, nodes.NewRegistry(cfg),
		host.WithLogger(logger),
		host.WithTrace(h.trace.Record),
		host.WithErrorHandler(func(err error) { h.failures = append(h.failures, err) }),
	)
	return h
}

// execute runs one step and records its outcome on r.
func (h *harness) execute(i int, step Step, r *Result) {
	label := fmt.Sprintf("step %d (%s)", i+1, step.Action)

	times := 1
	if step.Action == StepRerender && step.Times > 1 {
		times = step.Times
	}

	for n := 0; n < times; n++ {
		before := len(h.failures)
		err := h.apply(step, r)
		if err == nil && len(h.failures) > before {
			err = h.failures[before]
		}
		if msg := checkExpectedError(step.ExpectError, err); msg != "" {
			r.AddError(label + ": " + msg)
			return
		}

		for j, a := range step.Assert {
			view, verr := h.view(context.Background())
			if verr != nil {
				r.AddError(fmt.Sprintf("%s: %v", label, verr))
				return
			}
			if aerr := EvaluateAssertion(a, view); aerr != nil {
				r.AddError(fmt.Sprintf("%s assertion %d (%s): %v", label, j+1, a.Type, aerr))
			}
		}
	}
}

// checkExpectedError compares a step error with the expected fault code
// and returns a failure message, or "" when they agree.
func checkExpectedError(expected string, err error) string {
	switch {
	case expected == "" && err != nil:
		return "unexpected error: " + err.Error()
	case expected != "" && err == nil:
		return fmt.Sprintf("expected error %s, got none", expected)
	case expected != "" && expected != "any" && string(fault.CodeOf(err)) != expected:
		return fmt.Sprintf("expected error %s, got %v", expected, err)
	}
	return ""
}

func (h *harness) apply(step Step, r *Result) error {
	switch step.Action {
	case StepMount:
		h.tree = h.doc.Tree
		h.unmounted = false
		return h.root.Render(h.tree)

	case StepRerender:
		return h.root.Refresh()

	case StepUpdate:
		props, err := desc.NormalizeObject(step.Props)
		if err != nil {
			return fmt.Errorf("update props: %w", err)
		}
		next, err := replaceAt(h.tree, step.Path, func(n *host.Node) *host.Node {
			c := *n
			c.Props = n.Props.Without(step.Unset...)
			for k, v := range props {
				c.Props[k] = v
			}
			return &c
		})
		if err != nil {
			return err
		}
		h.tree = next
		return h.root.Render(h.tree)

	case StepRemove:
		next, err := replaceAt(h.tree, step.Path, func(*host.Node) *host.Node { return nil })
		if err != nil {
			return err
		}
		h.tree = next
		return h.root.Render(h.tree)

	case StepStyleLoaded:
		m, err := h.liveEngine()
		if err != nil {
			return err
		}
		m.FinishStyleLoad()
		h.root.Loop().Drain()
		return nil

	case StepSettle:
		return h.settle()

	case StepFire:
		m, err := h.liveEngine()
		if err != nil {
			return err
		}
		m.Fire(mapengine.Event{Type: step.Event, Layer: step.Layer})
		h.root.Loop().Drain()
		return nil

	case StepClosePopups:
		m, err := h.liveEngine()
		if err != nil {
			return err
		}
		m.ClosePopups()
		h.root.Loop().Drain()
		return nil

	case StepShake:
		m, err := h.liveEngine()
		if err != nil {
			return err
		}
		m.Shake()
		return nil

	case StepSnapshot:
		r.Snapshots = append(r.Snapshots, h.body.String())
		return nil

	case StepUnmount:
		h.unmounted = true
		return h.root.Unmount()
	}
	return fmt.Errorf("unknown action %q", step.Action)
}

func (h *harness) liveEngine() (*memmap.Map, error) {
	if h.engine == nil || h.engine.Removed() {
		return nil, errors.New("no live engine")
	}
	return h.engine, nil
}

// settle drains the loop until it has stayed empty for quietPeriod.
func (h *harness) settle() error {
	l := h.root.Loop()
	deadline := time.Now().Add(settleTimeout)
	quietSince := time.Now()
	for time.Now().Before(deadline) {
		if l.Drain() > 0 || l.Len() > 0 {
			quietSince = time.Now()
		}
		if time.Since(quietSince) >= quietPeriod {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("loop did not settle within %s", settleTimeout)
}

// replaceAt returns a copy of root where the node at path is replaced by
// fn's result, or dropped when fn returns nil. Nodes along the path are
// copied; everything else is shared.
func replaceAt(root *host.Node, path string, fn func(*host.Node) *host.Node) (*host.Node, error) {
	if root == nil {
		return nil, errors.New("nothing mounted")
	}
	var idx []int
	for _, part := range strings.Split(path, "/") {
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
		idx = append(idx, i)
	}

	var walk func(n *host.Node, rest []int) (*host.Node, error)
	walk = func(n *host.Node, rest []int) (*host.Node, error) {
		i := rest[0]
		if i < 0 || i >= len(n.Children) {
			return nil, fmt.Errorf("path %q: %s has no child %d", path, n.Kind, i)
		}
		c := *n
		c.Children = make([]*host.Node, 0, len(n.Children))
		for j, child := range n.Children {
			if j != i {
				c.Children = append(c.Children, child)
				continue
			}
			var next *host.Node
			if len(rest) == 1 {
				next = fn(child)
			} else {
				var err error
				if next, err = walk(child, rest[1:]); err != nil {
					return nil, err
				}
			}
			if next != nil {
				c.Children = append(c.Children, next)
			}
		}
		return &c, nil
	}
	return walk(root, idx)
}

// view builds a result for assertions evaluated mid-run.
func (h *harness) view(ctx context.Context) (*Result, error) {
	r := NewResult()
	r.Session = h.session
	if err := h.capture(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// capture fills r with the journal, the trace and the current state.
func (h *harness) capture(ctx context.Context, r *Result) error {
	_, calls, err := h.store.ReadSession(ctx, h.session)
	if err != nil {
		return err
	}
	r.Calls = calls
	r.Lifecycle = h.trace.Entries()
	r.Failures = append(r.Failures[:0], h.failures...)

	st := State{Fired: make(map[string]int, len(h.fired))}
	for k, v := range h.fired {
		st.Fired[k] = v
	}
	if h.engine != nil && !h.engine.Removed() {
		st.Sources = h.engine.SourceIDs()
		st.Layers = h.engine.LayerIDs()
		st.Images = h.engine.Images()
		st.Overlays = h.engine.OverlayCount()
		st.Listeners = h.engine.ListenerCount()
	}
	st.Spliced = countPlaceholders(h.body)
	r.State = st
	return nil
}

func countPlaceholders(n *dom.Node) int {
	count := 0
	for _, c := range n.Children() {
		if c.Type == dom.CommentNode && c.Data == splice.HostPlaceholder {
			count++
		}
		count += countPlaceholders(c)
	}
	return count
}
