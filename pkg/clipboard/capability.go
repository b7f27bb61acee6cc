package clipboard

import (
	"strings"
)

// ExecContext classifies where the process is running.
type ExecContext int

const (
	// ContextNone has neither a document nor process access; every
	// operation fails.
	ContextNone ExecContext = iota
	// ContextInteractive has a document that accepts legacy commands.
	ContextInteractive
	// ContextHeadless has no document and relies on OS utilities.
	ContextHeadless
)

func (c ExecContext) String() string {
	switch c {
	case ContextInteractive:
		return "interactive"
	case ContextHeadless:
		return "headless"
	default:
		return "none"
	}
}

// Mechanism is one clipboard tier.
type Mechanism uint8

const (
	MechanismAsyncAPI Mechanism = 1 << iota
	MechanismAsyncRead
	MechanismItemAPI
	MechanismLegacyCopy
	MechanismLegacyCut
	MechanismOSProcess
)

var mechanismNames = []struct {
	m    Mechanism
	name string
}{
	{MechanismAsyncAPI, "async-api"},
	{MechanismAsyncRead, "async-read"},
	{MechanismItemAPI, "item-api"},
	{MechanismLegacyCopy, "legacy-copy"},
	{MechanismLegacyCut, "legacy-cut"},
	{MechanismOSProcess, "os-process"},
}

func (m Mechanism) String() string {
	for _, n := range mechanismNames {
		if n.m == m {
			return n.name
		}
	}
	return "unknown"
}

// MechanismSet is a set of available mechanisms.
type MechanismSet Mechanism

// Has reports whether m is in the set.
func (s MechanismSet) Has(m Mechanism) bool {
	return Mechanism(s)&m != 0
}

// List returns the mechanisms in tier order.
func (s MechanismSet) List() []Mechanism {
	var out []Mechanism
	for _, n := range mechanismNames {
		if s.Has(n.m) {
			out = append(out, n.m)
		}
	}
	return out
}

func (s MechanismSet) String() string {
	names := make([]string, 0, len(mechanismNames))
	for _, m := range s.List() {
		names = append(names, m.String())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Capabilities is a snapshot of what an environment offers.
type Capabilities struct {
	Context    ExecContext
	Mechanisms MechanismSet
}

// Detect probes env once. The result is a snapshot; call it again to see
// capabilities that appeared later.
func Detect(env Environment) Capabilities {
	caps := Capabilities{Context: ContextOf(env)}

	var set Mechanism
	if HasAsyncWrite(env) {
		set |= MechanismAsyncAPI
	}
	if HasAsyncRead(env) {
		set |= MechanismAsyncRead
	}
	if HasItemWrite(env) {
		set |= MechanismItemAPI
	}
	if CommandSupported(env, "copy") {
		set |= MechanismLegacyCopy
	}
	if CommandSupported(env, "cut") {
		set |= MechanismLegacyCut
	}
	if hasProcess(env) {
		set |= MechanismOSProcess
	}
	caps.Mechanisms = MechanismSet(set)
	return caps
}

// ContextOf classifies the environment. A nil environment is ContextNone.
func ContextOf(env Environment) ExecContext {
	if env == nil {
		return ContextNone
	}
	return env.Context()
}

// HasAsyncWrite reports whether the in-process write API is present.
func HasAsyncWrite(env Environment) bool {
	return env != nil && env.AsyncAPI() != nil
}

// HasAsyncRead reports whether the in-process read API is present.
func HasAsyncRead(env Environment) bool {
	return env != nil && env.AsyncAPI() != nil
}

// HasItemWrite reports whether the typed-item write API is present.
func HasItemWrite(env Environment) bool {
	return env != nil && env.ItemWriter() != nil
}

// CommandSupported probes a legacy command. Any panic or absence of an
// interactive document counts as unsupported.
func CommandSupported(env Environment, action string) (supported bool) {
	doc := interactiveDocument(env)
	if doc == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			supported = false
		}
	}()
	return doc.CommandSupported(action)
}

func interactiveDocument(env Environment) Document {
	if ContextOf(env) != ContextInteractive {
		return nil
	}
	return env.Document()
}

func hasProcess(env Environment) bool {
	return ContextOf(env) == ContextHeadless && env.Process() != nil
}
