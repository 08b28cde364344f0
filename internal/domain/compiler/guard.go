package compiler

import (
	"strings"

	"github.com/felixgeelhaar/stashprov/internal/domain/config"
)

// Predicate decides from settings alone whether a step applies.
type Predicate func(config.Settings) bool

// Guard is a described predicate over the run settings.
type Guard struct {
	description string
	predicate   Predicate
}

// NewGuard creates a Guard.
func NewGuard(description string, predicate Predicate) Guard {
	return Guard{description: description, predicate: predicate}
}

// Always returns a guard that never skips.
func Always() Guard {
	return Guard{}
}

// Description returns the human-readable condition.
func (g Guard) Description() string {
	return g.description
}

// Allows evaluates the guard. A guard without a predicate allows everything.
func (g Guard) Allows(s config.Settings) bool {
	if g.predicate == nil {
		return true
	}
	return g.predicate(s)
}

// AllOf combines guards; the result allows only when every guard does.
func AllOf(guards ...Guard) Guard {
	descs := make([]string, 0, len(guards))
	preds := make([]Predicate, 0, len(guards))
	for _, g := range guards {
		if g.predicate == nil {
			continue
		}
		descs = append(descs, g.description)
		preds = append(preds, g.predicate)
	}
	if len(preds) == 0 {
		return Always()
	}
	return Guard{
		description: strings.Join(descs, " and "),
		predicate: func(s config.Settings) bool {
			for _, p := range preds {
				if !p(s) {
					return false
				}
			}
			return true
		},
	}
}

// Common guards.
var (
	GuardDatabaseLocal   = NewGuard("database host is localhost", config.Settings.DatabaseIsLocal)
	GuardVendorSupported = NewGuard("database type is supported", config.Settings.VendorSupported)
	GuardUsesMySQL       = NewGuard("database type is mysql", config.Settings.UsesMySQL)
)
