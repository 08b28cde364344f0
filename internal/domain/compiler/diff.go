package compiler

import "fmt"

// DiffType is the kind of change a step would make to the host.
type DiffType string

const (
	// DiffTypeAdd creates something that is not there yet.
	DiffTypeAdd DiffType = "add"
	// DiffTypeModify changes something that exists.
	DiffTypeModify DiffType = "modify"
	// DiffTypeNone means the step has nothing to do.
	DiffTypeNone DiffType = "none"
)

func (d DiffType) String() string {
	return string(d)
}

func (d DiffType) glyph() string {
	switch d {
	case DiffTypeAdd:
		return "+"
	case DiffTypeModify:
		return "~"
	default:
		return " "
	}
}

// redacted replaces values of sensitive diffs.
const redacted = "(sensitive)"

// Diff describes what applying a step would change.
type Diff struct {
	diffType  DiffType
	resource  string
	name      string
	oldValue  string
	newValue  string
	sensitive bool
}

// NewDiff creates a new Diff.
func NewDiff(diffType DiffType, resource, name, oldValue, newValue string) Diff {
	return Diff{
		diffType: diffType,
		resource: resource,
		name:     name,
		oldValue: oldValue,
		newValue: newValue,
	}
}

// Sensitive returns a copy whose values never leave the step: OldValue,
// NewValue and Summary report them as "(sensitive)".
func (d Diff) Sensitive() Diff {
	d.sensitive = true
	return d
}

// IsSensitive reports whether the values are redacted.
func (d Diff) IsSensitive() bool {
	return d.sensitive
}

// Type returns the diff type.
func (d Diff) Type() DiffType {
	return d.diffType
}

// Resource returns the kind of thing changed (e.g. "package", "file", "database-user").
func (d Diff) Resource() string {
	return d.resource
}

// Name identifies the changed thing within its resource kind.
func (d Diff) Name() string {
	return d.name
}

// OldValue describes the current state, or the drift found. Empty for adds.
func (d Diff) OldValue() string {
	return d.mask(d.oldValue)
}

// NewValue describes the desired state.
func (d Diff) NewValue() string {
	return d.mask(d.newValue)
}

func (d Diff) mask(v string) string {
	if d.sensitive && v != "" {
		return redacted
	}
	return v
}

// Summary renders the diff as one plan line, e.g. "~ file /etc/x (mode -> 0644)".
func (d Diff) Summary() string {
	head := fmt.Sprintf("%s %s %s", d.diffType.glyph(), d.resource, d.name)
	oldValue, newValue := d.OldValue(), d.NewValue()
	switch {
	case d.diffType == DiffTypeNone || d.diffType == "":
		return head
	case oldValue != "" && newValue != "":
		return fmt.Sprintf("%s (%s -> %s)", head, oldValue, newValue)
	case newValue != "":
		return fmt.Sprintf("%s (%s)", head, newValue)
	}
	return head
}

// IsEmpty is true for the zero Diff and for DiffTypeNone without a subject.
func (d Diff) IsEmpty() bool {
	return (d.diffType == DiffTypeNone || d.diffType == "") && d.resource == "" && d.name == ""
}
