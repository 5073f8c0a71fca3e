// Package lifecycle tracks where an agent specification is on its way from
// draft to published.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// States. Untyped so they convert to statekit.StateID.
const (
	StateDraft     = "draft"
	StateCompiled  = "compiled"
	StatePublished = "published"
	StateArchived  = "archived"
)

// Events.
const (
	EventCompile = "compile"
	EventPublish = "publish"
	EventEdit    = "edit"
	EventArchive = "archive"
	EventRestore = "restore"
)

// ErrTransitionNotAllowed is returned when an event is invalid for the
// current state or its guard rejects it.
var ErrTransitionNotAllowed = errors.New("transition not allowed")

var (
	states = []string{StateDraft, StateCompiled, StatePublished, StateArchived}
	events = []string{EventCompile, EventPublish, EventEdit, EventArchive, EventRestore}
	// guarded events must pass the Guard handed to New.
	guarded = map[string]bool{EventCompile: true, EventPublish: true}
)

// transitions maps state to event to target state.
var transitions = map[string]map[string]string{
	StateDraft: {
		EventCompile: StateCompiled,
		EventArchive: StateArchived,
	},
	StateCompiled: {
		EventPublish: StatePublished,
		EventEdit:    StateDraft,
		EventArchive: StateArchived,
	},
	StatePublished: {
		EventEdit:    StateDraft,
		EventArchive: StateArchived,
	},
	StateArchived: {
		EventRestore: StateDraft,
	},
}

// ValidEvents lists the events accepted in state, in a stable order.
func ValidEvents(state string) []string {
	var out []string
	for _, ev := range events {
		if _, ok := transitions[state][ev]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// Guard decides whether a guarded event may fire. compile and publish are
// guarded.
type Guard func(event string) bool

type machineContext struct {
	Guard Guard
}

// Machine is the publish lifecycle of one spec.
type Machine struct {
	interpreter *statekit.Interpreter[machineContext]
}

func New(initial string, guard Guard) (*Machine, error) {
	if _, ok := transitions[initial]; !ok {
		return nil, fmt.Errorf("unknown lifecycle state %q", initial)
	}
	if guard == nil {
		guard = func(string) bool { return true }
	}

	builder := statekit.NewMachine[machineContext]("spec-lifecycle").
		WithInitial(statekit.StateID(initial)).
		WithContext(machineContext{Guard: guard}).
		WithGuard("gateGuard", func(ctx machineContext, e statekit.Event) bool {
			return ctx.Guard(string(e.Type))
		})

	for _, state := range states {
		sb := builder.State(statekit.StateID(state))
		for _, ev := range events {
			target, ok := transitions[state][ev]
			if !ok {
				continue
			}
			tb := sb.On(statekit.EventType(ev)).Target(statekit.StateID(target))
			if guarded[ev] {
				tb.Guard("gateGuard")
			}
		}
	}

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build lifecycle machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &Machine{interpreter: interpreter}, nil
}

// Fire sends event. An unchanged state means the event was invalid or its
// guard refused it.
func (m *Machine) Fire(event string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if m.Current() != before {
		return nil
	}
	return fmt.Errorf("%w: cannot %s while %s", ErrTransitionNotAllowed, event, before)
}

func (m *Machine) Current() string {
	return string(m.interpreter.State().Value)
}

// Record is the persisted lifecycle state of a workspace.
type Record struct {
	State     string    `json:"state"`
	SpecHash  string    `json:"spec_hash,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord starts a draft record.
func NewRecord() *Record {
	return &Record{State: StateDraft, UpdatedAt: time.Now()}
}

// Apply fires event on a machine seeded from r and stores the new state.
func (r *Record) Apply(event string, guard Guard) error {
	m, err := New(r.State, guard)
	if err != nil {
		return err
	}
	if err := m.Fire(event); err != nil {
		return err
	}
	r.State = m.Current()
	r.UpdatedAt = time.Now()
	return nil
}

// Repository persists lifecycle records.
type Repository interface {
	SaveLifecycle(r *Record) error
	LoadLifecycle() (*Record, error)
}
