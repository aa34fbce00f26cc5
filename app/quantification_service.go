package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gouq/adapters/runmodel"
	"gouq/domain/core"
	"gouq/domain/parameter"
	"gouq/domain/result"
	"gouq/internal"
	"gouq/internal/config"
	"gouq/internal/errors"
	"gouq/internal/uncertainty"
	"gouq/models"
	"gouq/ports"
)

// Method selects the top-level uncertainty quantification method.
type Method string

const (
	MethodPolynomialChaos Method = "pc"
	MethodMonteCarlo      Method = "mc"
	MethodCustom          Method = "custom"
)

// RunnerFactory builds the model runner of one request.
type RunnerFactory func(model runmodel.Model, params *parameter.Set, features []runmodel.Feature) (ports.ModelRunner, error)

// QuantificationService runs uncertainty quantification requests against
// the engine.
type QuantificationService struct {
	options   uncertainty.Options
	newRunner RunnerFactory
	logger    *internal.Logger
}

// QuantifyRequest defines one analysis
type QuantifyRequest struct {
	Model      runmodel.Model
	Parameters *parameter.Set
	Features   []runmodel.Feature
	Uncertain  []string

	Method     Method
	PCMethod   string // collocation, spectral or custom
	Rosenblatt bool
}

// QuantifyResult contains the analysed data of a request
type QuantifyResult struct {
	RunID     core.RunID   `json:"run_id"`
	Method    Method       `json:"method"`
	Data      *result.Data `json:"data"`
	RuntimeMs int64        `json:"runtime_ms"`
}

// NewQuantificationService creates a service running models on cpus
// concurrent evaluations.
func NewQuantificationService(options uncertainty.Options, cpus int, logger *internal.Logger) *QuantificationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &QuantificationService{
		options: options,
		newRunner: func(model runmodel.Model, params *parameter.Set, features []runmodel.Feature) (ports.ModelRunner, error) {
			return runmodel.NewRunner(model, params, features, cpus, logger)
		},
		logger: logger,
	}
}

// WithRunnerFactory replaces how model runners are built.
func (s *QuantificationService) WithRunnerFactory(f RunnerFactory) *QuantificationService {
	s.newRunner = f
	return s
}

// Quantify runs the requested method and returns the analysed data.
func (s *QuantificationService) Quantify(ctx context.Context, req QuantifyRequest) (*QuantifyResult, error) {
	startTime := time.Now()

	if req.Model == nil {
		return nil, errors.ConfigInvalid("a model is required")
	}
	if req.Parameters == nil {
		return nil, errors.ConfigInvalid("a parameter set is required")
	}

	method := Method(strings.ToLower(string(req.Method)))
	if method == "" {
		method = MethodPolynomialChaos
	}
	switch method {
	case MethodPolynomialChaos, MethodMonteCarlo:
	case MethodCustom:
		return nil, errors.NotImplemented("custom uncertainty quantification method not implemented")
	default:
		return nil, errors.ConfigInvalidCause(
			fmt.Errorf("%w: %q", core.ErrUnknownMethod, req.Method),
			fmt.Sprintf("no uncertainty quantification method with name %s", req.Method))
	}

	runner, err := s.newRunner(req.Model, req.Parameters, req.Features)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create model runner")
	}
	calc, err := uncertainty.New(runner, req.Parameters, s.options, s.logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create engine")
	}

	var data *result.Data
	switch method {
	case MethodMonteCarlo:
		data, err = calc.MonteCarlo(ctx, req.Uncertain)
	case MethodPolynomialChaos:
		var pc uncertainty.Method
		if pc, err = uncertainty.ParseMethod(req.PCMethod); err != nil {
			return nil, err
		}
		data, err = calc.PolynomialChaos(ctx, req.Uncertain, pc, req.Rosenblatt)
	}
	if err != nil {
		return nil, err
	}
	data.Model = req.Model.Name()

	runtimeMs := time.Since(startTime).Milliseconds()
	s.logger.Info("Run %s (%s on %s) finished in %dms, incomplete features: %v",
		data.ID, data.Method, data.Model, runtimeMs, data.Incomplete)

	return &QuantifyResult{
		RunID:     data.ID,
		Method:    method,
		Data:      data,
		RuntimeMs: runtimeMs,
	}, nil
}

// QuantifyProblem runs a problem file against its registered model. The
// model's default parameters are used when the problem defines none.
func (s *QuantificationService) QuantifyProblem(ctx context.Context, problem *config.Problem, method Method, pcMethod string, rosenblatt bool) (*QuantifyResult, error) {
	entry, err := models.Lookup(problem.Model)
	if err != nil {
		return nil, errors.ConfigInvalidCause(err, "cannot load model")
	}
	params := problem.Parameters
	if params == nil {
		if params, err = entry.Parameters(); err != nil {
			return nil, errors.Wrap(err, "failed to build default parameters")
		}
	}
	return s.Quantify(ctx, QuantifyRequest{
		Model:      entry.Model,
		Parameters: params,
		Uncertain:  problem.Uncertain,
		Method:     method,
		PCMethod:   pcMethod,
		Rosenblatt: rosenblatt,
	})
}
