// Package pipeline aggregates one trading date into a finalized snapshot:
// it fans metric groups out concurrently, walks each group's ranked
// endpoints until one yields usable values, reconciles consistency
// groups, fills defaults, computes derived indicators, and upserts the
// result. Concurrent runs for the same date collapse into one execution.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/twmarket/chips-cli/internal/derive"
	"github.com/twmarket/chips-cli/internal/docparse"
	"github.com/twmarket/chips-cli/internal/extract"
	"github.com/twmarket/chips-cli/internal/fetch"
	"github.com/twmarket/chips-cli/internal/model"
	"github.com/twmarket/chips-cli/internal/registry"
	"github.com/twmarket/chips-cli/internal/store"
	"github.com/twmarket/chips-cli/internal/validate"
)

// Options tunes runner behavior.
type Options struct {
	// GlobalTimeout caps one whole snapshot run.
	GlobalTimeout time.Duration
	// MaxConcurrentGroups bounds the metric-group fan-out.
	MaxConcurrentGroups int
	// HeaderScanRows is passed through to the extraction chain.
	HeaderScanRows int
	// ConsistencyEpsilon applies to consistency groups that declare none.
	ConsistencyEpsilon float64
}

// PersistenceError reports that the snapshot was fully computed but could
// not be stored. The snapshot accompanying it is still valid.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("pipeline: persist snapshot: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Runner aggregates snapshots.
type Runner struct {
	reg     *registry.Registry
	fetcher fetch.Fetcher
	st      store.Store
	chain   *extract.Chain
	opts    Options
	sf      singleflight.Group
}

// NewRunner builds a runner.
func NewRunner(reg *registry.Registry, fetcher fetch.Fetcher, st store.Store, opts Options) *Runner {
	if opts.GlobalTimeout <= 0 {
		opts.GlobalTimeout = 2 * time.Minute
	}
	if opts.MaxConcurrentGroups <= 0 {
		opts.MaxConcurrentGroups = 4
	}
	if opts.ConsistencyEpsilon <= 0 {
		opts.ConsistencyEpsilon = 1.0
	}
	return &Runner{
		reg:     reg,
		fetcher: fetcher,
		st:      st,
		chain:   extract.New(extract.Options{HeaderScanRows: opts.HeaderScanRows}),
		opts:    opts,
	}
}

// Run computes the snapshot for one trading date. Re-running a date
// upserts the stored row rather than duplicating it, and concurrent calls
// for the same date share a single execution. When persistence fails the
// computed snapshot is returned together with a *PersistenceError.
func (r *Runner) Run(ctx context.Context, date time.Time) (*model.Snapshot, error) {
	key := date.Format(model.DateLayout)
	v, err, shared := r.sf.Do(key, func() (any, error) {
		return r.run(ctx, date)
	})
	if shared {
		zap.L().Debug("snapshot run coalesced", zap.String("trading_date", key))
	}
	snap, _ := v.(*model.Snapshot)
	return snap, err
}

func (r *Runner) run(ctx context.Context, date time.Time) (*model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.GlobalTimeout)
	defer cancel()

	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("trading_date", date.Format(model.DateLayout)),
	)
	log.Info("snapshot run started", zap.Int("groups", len(r.reg.Groups())))

	snap := model.NewSnapshot(date)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxConcurrentGroups)
	for _, group := range r.reg.Groups() {
		g.Go(func() error {
			// A group that yields nothing still never fails the run;
			// its fields resolve to defaults below.
			values := r.runGroup(gctx, group, date, log)
			mu.Lock()
			for k, v := range values {
				snap.Metrics[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Every declared field resolves, if only to its typed default.
	defaulted := 0
	for _, group := range r.reg.Groups() {
		for _, f := range group.Fields {
			if _, ok := snap.Metrics[f.Name]; !ok {
				snap.Metrics[f.Name] = model.DefaultValue(f)
				defaulted++
			}
		}
	}

	snap.Derived = derive.Compute(snap.Metrics)
	snap.ComputedAt = time.Now()
	snap.Finalized = true

	log.Info("snapshot run finished",
		zap.Int("metrics", len(snap.Metrics)),
		zap.Int("defaulted", defaulted),
	)

	if err := r.st.PutSnapshot(ctx, snap); err != nil {
		log.Error("snapshot computed but not persisted", zap.Error(err))
		return snap, &PersistenceError{Err: err}
	}
	return snap, nil
}

// runGroup walks the group's endpoints in rank order and returns the
// values of the first endpoint that produced any. A fetch error, an
// unparseable payload, or an extraction that resolves nothing are all
// definitive failures that advance to the next rank.
func (r *Runner) runGroup(ctx context.Context, group model.MetricGroup, date time.Time, log *zap.Logger) map[string]model.ExtractedValue {
	endpoints := append([]model.Endpoint(nil), group.Endpoints...)
	sort.SliceStable(endpoints, func(i, j int) bool { return endpoints[i].Rank < endpoints[j].Rank })

	for _, ep := range endpoints {
		if ctx.Err() != nil {
			log.Warn("group abandoned, run deadline reached", zap.String("group", group.Name))
			return nil
		}

		doc, err := r.fetcher.Fetch(ctx, ep, date)
		if err != nil {
			log.Warn("endpoint fetch failed",
				zap.String("group", group.Name),
				zap.String("endpoint", ep.Name),
				zap.String("kind", string(fetch.KindOf(err))),
				zap.Error(err),
			)
			continue
		}

		grid, err := docparse.Parse(doc)
		if err != nil {
			log.Warn("endpoint payload unparseable",
				zap.String("group", group.Name),
				zap.String("endpoint", ep.Name),
				zap.Error(err),
			)
			continue
		}

		values := r.chain.Extract(grid, ep.Name, group.Fields)
		if len(values) == 0 {
			log.Warn("endpoint resolved no fields",
				zap.String("group", group.Name),
				zap.String("endpoint", ep.Name),
			)
			continue
		}

		r.reconcile(group, values, log)
		return values
	}

	log.Warn("all endpoints exhausted, group falls to defaults",
		zap.String("group", group.Name))
	return nil
}

func (r *Runner) reconcile(group model.MetricGroup, values map[string]model.ExtractedValue, log *zap.Logger) {
	for _, cg := range group.Consistency {
		if cg.Epsilon <= 0 {
			cg.Epsilon = r.opts.ConsistencyEpsilon
		}
		repairs, ok := validate.Reconcile(cg, values)
		for k, v := range repairs {
			values[k] = v
		}
		if !ok {
			log.Warn("consistency group irreconcilable",
				zap.String("group", group.Name),
				zap.String("total", cg.Total),
			)
		}
	}
}
