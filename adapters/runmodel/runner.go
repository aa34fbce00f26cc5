package runmodel

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"gouq/domain/core"
	"gouq/domain/parameter"
	"gouq/domain/result"
	"gouq/internal"
	apperrors "gouq/internal/errors"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/mat"
)

// Runner evaluates a model and its features at every node, up to CPUs
// evaluations at a time. It implements ports.ModelRunner.
type Runner struct {
	model      Model
	features   []Feature
	parameters *parameter.Set
	cpus       int
	logger     *internal.Logger
}

// NewRunner returns a runner for model over parameters. cpus <= 0 uses
// every CPU.
func NewRunner(model Model, parameters *parameter.Set, features []Feature, cpus int, logger *internal.Logger) (*Runner, error) {
	if model == nil {
		return nil, apperrors.ConfigInvalid("model is required")
	}
	if parameters == nil {
		return nil, apperrors.ConfigInvalid("parameter set is required")
	}
	seen := map[string]bool{model.Name(): true}
	for _, f := range features {
		if f.Compute == nil {
			return nil, apperrors.ConfigInvalid(fmt.Sprintf("feature %s has no compute function", f.Name))
		}
		if seen[f.Name] {
			return nil, apperrors.ConfigInvalid(fmt.Sprintf("duplicate feature name %s", f.Name))
		}
		seen[f.Name] = true
	}
	if cpus <= 0 {
		cpus = runtime.NumCPU()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runner{
		model:      model,
		features:   features,
		parameters: parameters,
		cpus:       cpus,
		logger:     logger,
	}, nil
}

// nodeResult holds the model output (index 0) and the feature outputs of
// one node.
type nodeResult struct {
	outputs []Output
	errs    []error
}

// Run evaluates the model at every column of nodes. Row i of nodes sets
// parameter uncertain[i]. A failing or panicking evaluation becomes a
// failed Evaluation; cancellation and ErrAbort end the run with an error.
func (r *Runner) Run(ctx context.Context, nodes *mat.Dense, uncertain []string) (*result.Data, error) {
	dim, n := nodes.Dims()
	if dim != len(uncertain) {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("nodes have %d rows for %d uncertain parameters", dim, len(uncertain)), nil)
	}
	for _, name := range uncertain {
		if _, ok := r.parameters.Get(name); !ok {
			return nil, apperrors.ConfigInvalidCause(core.NewUnknownParameterError(name), "cannot run model")
		}
	}

	r.logger.Info("Running %s at %d nodes on %d CPUs", r.model.Name(), n, r.cpus)

	results := make([]nodeResult, n)
	sem := semaphore.NewWeighted(int64(r.cpus))
	g, gctx := errgroup.WithContext(ctx)
	for j := 0; j < n; j++ {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		params := r.parameters.Nominal()
		for i, name := range uncertain {
			params[name] = nodes.At(i, j)
		}
		g.Go(func() error {
			defer sem.Release(1)
			res, err := r.evaluate(gctx, params)
			if err != nil {
				return fmt.Errorf("node %d: %w", j, err)
			}
			results[j] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.collect(results, uncertain), nil
}

// evaluate runs the model and every feature at one parameter combination.
// Only fatal errors are returned.
func (r *Runner) evaluate(ctx context.Context, params map[string]float64) (nodeResult, error) {
	res := nodeResult{
		outputs: make([]Output, len(r.features)+1),
		errs:    make([]error, len(r.features)+1),
	}
	out, err := r.callModel(ctx, params)
	if err != nil {
		if errors.Is(err, ErrAbort) || ctx.Err() != nil {
			return res, err
		}
		r.logger.Debug("Model %s failed at %v: %v", r.model.Name(), params, err)
		for i := range res.errs {
			res.errs[i] = err
		}
		return res, nil
	}
	res.outputs[0] = out

	for i, f := range r.features {
		fout, err := callFeature(f, out)
		if err != nil {
			r.logger.Debug("Feature %s failed: %v", f.Name, err)
			res.errs[i+1] = err
			continue
		}
		res.outputs[i+1] = fout
	}
	return res, nil
}

func (r *Runner) callModel(ctx context.Context, params map[string]float64) (out Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("model %s panicked: %v", r.model.Name(), rec)
		}
	}()
	return r.model.Run(ctx, params)
}

func callFeature(f Feature, in Output) (out Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("feature %s panicked: %v", f.Name, rec)
		}
	}()
	return f.Compute(in)
}

// collect assembles per-node results into result data, model first.
func (r *Runner) collect(results []nodeResult, uncertain []string) *result.Data {
	data := result.NewData(uncertain)
	data.Model = r.model.Name()

	names := []string{r.model.Name()}
	labels := [][]string{r.model.Labels()}
	for _, f := range r.features {
		names = append(names, f.Name)
		labels = append(labels, f.Labels)
	}

	var failed []string
	for k, name := range names {
		feature := &result.Feature{
			Name:        name,
			Labels:      labels[k],
			Evaluations: make([]result.Evaluation, len(results)),
		}
		bad := 0
		for j, res := range results {
			if err := res.errs[k]; err != nil {
				feature.Evaluations[j] = result.Failure(err)
				bad++
				continue
			}
			out := res.outputs[k]
			feature.Evaluations[j] = result.Success(out.Values)
			if feature.Time == nil && len(out.Time) > 0 {
				feature.Time = out.Time
			}
		}
		if bad > 0 {
			failed = append(failed, fmt.Sprintf("%s (%d/%d)", name, bad, len(results)))
		}
		data.Add(feature)
	}
	if len(failed) > 0 {
		r.logger.Warn("Failed evaluations: %s", strings.Join(failed, ", "))
	}
	return data
}
