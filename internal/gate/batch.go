package gate

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/mapbind/internal/fault"
)

// Asset is one named member of a batch.
type Asset struct {
	Name string
	Load func(ctx context.Context) (any, error)
}

// Registrar receives loaded assets on the UI thread.
type Registrar interface {
	Register(name string, v any) error
	Unregister(name string)
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithLogger sets the logger used for rollback diagnostics. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) BatchOption {
	return func(b *Batch) {
		if l != nil {
			b.logger = l
		}
	}
}

// Batch loads a set of assets with all-must-succeed semantics.
//
// Loads run concurrently. Each success is registered on the UI thread as
// soon as it resolves. Once every load has settled the batch either flips
// its gate (all succeeded) or unregisters everything it registered and
// reports the first failure; it never exposes a partially loaded set.
type Batch struct {
	gate       *Gate
	poster     Poster
	reg        Registrar
	cancel     context.CancelFunc
	registered []string
	regErr     error
	done       func(error)
	finished   bool
	logger     *slog.Logger
}

// LoadBatch starts loading assets. done runs on the UI thread exactly once
// unless the batch is cancelled first: with nil when the gate flipped, or
// with a fault.CodeAssetLoad error after rollback.
func LoadBatch(ctx context.Context, poster Poster, reg Registrar, assets []Asset, done func(error), opts ...BatchOption) *Batch {
	b := &Batch{
		gate:   Pending(),
		poster: poster,
		reg:    reg,
		done:   done,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if len(assets) == 0 {
		b.finished = true
		b.gate.Resolve()
		if done != nil {
			done(nil)
		}
		return b
	}

	ctx, b.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range assets {
		a := a
		g.Go(func() error {
			v, err := a.Load(gctx)
			if err != nil {
				return fault.AssetLoad(a.Name, err)
			}
			poster.Post(func() { b.register(a.Name, v) })
			return nil
		})
	}

	go func() {
		err := g.Wait()
		poster.Post(func() { b.finish(err) })
	}()

	return b
}

// Gate returns the batch's readiness gate.
func (b *Batch) Gate() *Gate {
	return b.gate
}

// Registered returns the names currently registered, sorted.
func (b *Batch) Registered() []string {
	out := append([]string(nil), b.registered...)
	sort.Strings(out)
	return out
}

func (b *Batch) register(name string, v any) {
	if b.gate.Canceled() || b.finished || b.regErr != nil {
		return
	}
	if err := b.reg.Register(name, v); err != nil {
		b.regErr = fault.AssetLoad(name, err)
		return
	}
	b.registered = append(b.registered, name)
}

func (b *Batch) finish(err error) {
	if b.finished {
		return
	}
	b.finished = true
	b.cancel()

	if b.gate.Canceled() {
		b.rollback()
		return
	}
	if err == nil {
		err = b.regErr
	}
	if err != nil {
		b.logger.Debug("asset batch failed, rolling back", "registered", len(b.registered), "error", err)
		b.rollback()
		b.gate.Cancel()
		if b.done != nil {
			b.done(err)
		}
		return
	}

	b.gate.Resolve()
	if b.done != nil {
		b.done(nil)
	}
}

func (b *Batch) rollback() {
	for i := len(b.registered) - 1; i >= 0; i-- {
		b.reg.Unregister(b.registered[i])
	}
	b.registered = nil
}

// Cancel abandons the batch: in-flight loads are cancelled, the gate never
// flips and everything already registered is unregistered. Safe to call
// after the batch finished, in which case successful registrations are
// released too.
func (b *Batch) Cancel() {
	if b.cancel != nil {
		b.cancel()
	}
	b.gate.Cancel()
	b.rollback()
}
