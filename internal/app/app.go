// Package app provides the main application logic for stashprov.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/stashprov/internal/adapters/metrics"
	"github.com/felixgeelhaar/stashprov/internal/adapters/remote"
	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/domain/execution"
	"github.com/felixgeelhaar/stashprov/internal/ports"
	"github.com/felixgeelhaar/stashprov/internal/recipe"
)

// Options selects the configuration and the target of one invocation.
type Options struct {
	BundlePath     string
	SecretPath     string
	AttributesPath string
	// Environment overrides the environment named in the attributes.
	Environment string
	// Remote, when set, provisions the host over SSH instead of locally.
	Remote *remote.Config
	// MetricsFile receives Prometheus metrics after apply when set.
	MetricsFile string
}

// Stashprov is the main application orchestrator.
type Stashprov struct {
	out       io.Writer
	log       ports.Logger
	loader    *config.Loader
	validator *config.Validator
	planner   *execution.Planner
	executor  *execution.Executor
	connect   Connector
	metrics   *metrics.Recorder
	styles    styles
}

// New creates a new Stashprov application writing reports to out.
func New(out io.Writer, log ports.Logger) *Stashprov {
	return &Stashprov{
		out:       out,
		log:       log,
		loader:    config.NewLoader(),
		validator: config.NewValidator(),
		planner:   execution.NewPlanner(),
		executor:  execution.NewExecutor(),
		connect:   Connect,
		metrics:   metrics.NewRecorder(),
		styles:    defaultStyles(),
	}
}

// WithConnector replaces how the target host is reached.
func (s *Stashprov) WithConnector(c Connector) *Stashprov {
	s.connect = c
	return s
}

// Metrics exposes the recorder holding the metrics of the last apply.
func (s *Stashprov) Metrics() *metrics.Recorder {
	return s.metrics
}

// session is a connected, compiled run target.
type session struct {
	settings config.Settings
	graph    *compiler.StepGraph
	close    func() error
}

// Load reads the bundle and attributes and resolves the selected environment.
// The service manager may still be "auto" at this point.
func (s *Stashprov) Load(opts Options) (config.Settings, error) {
	bundle, err := s.loader.LoadBundle(opts.BundlePath, opts.SecretPath)
	if err != nil {
		return config.Settings{}, err
	}

	attrs := config.DefaultAttributes()
	if opts.AttributesPath != "" {
		if attrs, err = s.loader.LoadAttributes(opts.AttributesPath); err != nil {
			return config.Settings{}, err
		}
	}

	env := opts.Environment
	if env == "" {
		env = attrs.Environment
	}
	settings, err := config.Resolve(bundle, env, attrs)
	if err != nil {
		return config.Settings{}, err
	}
	if err := s.validator.Validate(settings); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

func (s *Stashprov) open(ctx context.Context, opts Options) (*session, error) {
	settings, err := s.Load(opts)
	if err != nil {
		return nil, err
	}

	target, err := s.connect(ctx, opts, settings.Attributes())
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	s.log.Debug(ctx, "connected", ports.F("remote", opts.Remote != nil))

	attrs := settings.Attributes()
	if attrs.Stash.ServiceManager == config.ServiceManagerAuto {
		attrs.Stash.ServiceManager = target.ServiceManager()
		s.log.Debug(ctx, "detected service manager", ports.F("service_manager", attrs.Stash.ServiceManager))
		settings = settings.WithAttributes(attrs)
	}

	graph, err := recipe.NewCompiler(target.Host).Compile(settings)
	if err != nil {
		_ = target.Close()
		return nil, fmt.Errorf("failed to compile: %w", err)
	}
	return &session{settings: settings, graph: graph, close: target.Close}, nil
}

// Plan previews the run against the target host.
func (s *Stashprov) Plan(ctx context.Context, opts Options) (*execution.Plan, error) {
	sess, err := s.open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sess.close() }()

	ctx = ports.ContextWithLogger(ctx, s.log)
	for _, w := range sess.settings.Warnings() {
		s.log.Warn(ctx, w)
	}

	plan, err := s.planner.Plan(ctx, sess.graph, sess.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to plan: %w", err)
	}
	return plan, nil
}

// Apply runs the recipe. The result is returned even when the run failed.
func (s *Stashprov) Apply(ctx context.Context, opts Options, dryRun bool) (*execution.RunResult, error) {
	sess, err := s.open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sess.close() }()

	ctx = ports.ContextWithLogger(ctx, s.log.With(ports.F("environment", sess.settings.Environment())))
	result, runErr := s.executor.WithDryRun(dryRun).Run(ctx, sess.graph, sess.settings)

	s.metrics.Observe(sess.settings.Environment(), result)
	if opts.MetricsFile != "" {
		if err := s.metrics.WriteTextfile(opts.MetricsFile); err != nil {
			s.log.Warn(ctx, "metrics not written", ports.Err(err))
		}
	}
	return result, runErr
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []string
	Warnings []string
	Info     []string
}

// Valid reports whether no errors were found.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Validate checks the configuration and compiles the recipe without touching a host.
func (s *Stashprov) Validate(_ context.Context, opts Options) (*ValidationResult, error) {
	result := &ValidationResult{}

	settings, err := s.Load(opts)
	var list *config.ErrorList
	switch {
	case errors.As(err, &list):
		for _, e := range list.Errors() {
			result.Errors = append(result.Errors, e.Error())
		}
		return result, nil
	case err != nil:
		return nil, err
	}

	result.Info = append(result.Info,
		fmt.Sprintf("Loaded bundle from %s", opts.BundlePath),
		fmt.Sprintf("Environment: %s", settings.Environment()),
		fmt.Sprintf("Database: %s on %s:%d", settings.Vendor(), settings.Database().Host, settings.Database().EffectivePort()),
	)
	result.Warnings = append(result.Warnings, settings.Warnings()...)

	// Compiling only records the ports; nothing runs.
	graph, err := recipe.NewCompiler(recipe.Host{}).Compile(settings)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Compilation failed: %v", err))
		return result, nil
	}
	result.Info = append(result.Info, fmt.Sprintf("Compiled %d steps", graph.Len()))
	return result, nil
}

// Decrypt writes the decrypted data bag item as indented JSON.
func (s *Stashprov) Decrypt(itemPath, secretPath string) error {
	item, err := s.loader.LoadItem(itemPath, secretPath)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}
