package appprops

import (
	"fmt"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/ports"
)

const (
	countQuery  = "SELECT COUNT(*) FROM app_property WHERE prop_key = ?"
	insertQuery = "INSERT INTO app_property (prop_key, prop_value) VALUES (?, ?)"
)

// Property is one app_property row.
type Property struct {
	Key   string
	Value string
	// Secret values are masked in plans.
	Secret bool
}

// PropertyStep inserts a property row unless one with the same key exists.
// An existing row is never overwritten.
type PropertyStep struct {
	prop   Property
	conn   ports.DatabaseConnection
	id     compiler.StepID
	after  compiler.StepID
	opener ports.DatabaseOpener
}

// NewPropertyStep creates a new PropertyStep.
func NewPropertyStep(prop Property, conn ports.DatabaseConnection, opener ports.DatabaseOpener, after compiler.StepID) *PropertyStep {
	return &PropertyStep{
		prop:   prop,
		conn:   conn,
		id:     compiler.MustNewStepID("appprops:seed:" + prop.Key),
		after:  after,
		opener: opener,
	}
}

// ID returns the step identifier.
func (s *PropertyStep) ID() compiler.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *PropertyStep) DependsOn() []compiler.StepID {
	if s.after.IsZero() {
		return nil
	}
	return []compiler.StepID{s.after}
}

// Guard skips the step unless seeding is enabled.
func (s *PropertyStep) Guard() compiler.Guard {
	return GuardSeedEnabled
}

// BestEffort marks failures as non-fatal.
func (s *PropertyStep) BestEffort() bool {
	return true
}

// Check determines if the property row exists.
func (s *PropertyStep) Check(ctx compiler.RunContext) (compiler.StepStatus, error) {
	var n int
	err := s.with(ctx, func(db ports.DatabaseAdmin) error {
		var err error
		n, err = db.Count(ctx.Context(), countQuery, s.prop.Key)
		return err
	})
	if err != nil {
		return compiler.StatusUnknown, err
	}
	if n > 0 {
		return compiler.StatusSatisfied, nil
	}
	return compiler.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *PropertyStep) Plan(_ compiler.RunContext) (compiler.Diff, error) {
	diff := compiler.NewDiff(compiler.DiffTypeAdd, "app_property", s.prop.Key, "", s.prop.Value)
	if s.prop.Secret {
		diff = diff.Sensitive()
	}
	return diff, nil
}

// Apply inserts the row.
func (s *PropertyStep) Apply(ctx compiler.RunContext) error {
	return s.with(ctx, func(db ports.DatabaseAdmin) error {
		if err := db.Exec(ctx.Context(), insertQuery, s.prop.Key, s.prop.Value); err != nil {
			return fmt.Errorf("insert %s: %w", s.prop.Key, err)
		}
		return nil
	})
}

func (s *PropertyStep) with(ctx compiler.RunContext, fn func(ports.DatabaseAdmin) error) (err error) {
	db, err := s.opener.Open(ctx.Context(), s.conn)
	if err != nil {
		return fmt.Errorf("connect to %s as %s: %w", s.conn.Database, s.conn.Username, err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(db)
}

// Explain provides a human-readable explanation.
func (s *PropertyStep) Explain(_ compiler.ExplainContext) compiler.Explanation {
	return compiler.NewExplanation(
		"Seed application property",
		fmt.Sprintf("Inserts the %s property into the app_property table of %s. Failure does not stop the run.", s.prop.Key, s.conn.Database),
		nil,
	).WithCondition(GuardSeedEnabled.Description())
}
