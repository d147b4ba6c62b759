// Package rules holds the object-level permission predicates. A predicate
// receives the acting member and the resource explicitly and answers Allow
// or Deny; optional resource attributes are modelled as Field values.
package rules

import (
	"github.com/jdav-kompass/kompass/internal/model"
)

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) Allowed() bool {
	return bool(d)
}

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

func decide(ok bool) Decision {
	return Decision(ok)
}

// Field is a resource attribute that a resource either has or lacks.
type Field[T any] struct {
	value   T
	present bool
}

func Has[T any](v T) Field[T] {
	return Field[T]{value: v, present: true}
}

func Lacks[T any]() Field[T] {
	return Field[T]{}
}

func (f Field[T]) Get() (T, bool) {
	return f.value, f.present
}

type Actor struct {
	MemberID string
	Admin    bool
}

type Resource interface {
	Creator() Field[string]
	Status() Field[model.StatementStatus]
	Excursion() Field[*model.Excursion]
}

type Predicate func(actor Actor, resource Resource) Decision

func IsAdmin(actor Actor, _ Resource) Decision {
	return decide(actor.Admin)
}

// IsCreator allows the member recorded as the resource's creator.
func IsCreator(actor Actor, resource Resource) Decision {
	creator, ok := resource.Creator().Get()
	return decide(ok && actor.MemberID != "" && creator == actor.MemberID)
}

// NotSubmitted allows while the resource is still unsubmitted.
func NotSubmitted(_ Actor, resource Resource) Decision {
	status, ok := resource.Status().Get()
	return decide(ok && status == model.StatementUnsubmitted)
}

// LeadsExcursion allows youth leaders of the excursion the resource belongs to.
func LeadsExcursion(actor Actor, resource Resource) Decision {
	excursion, ok := resource.Excursion().Get()
	return decide(ok && excursion != nil && excursion.IsLeader(actor.MemberID))
}

func Any(predicates ...Predicate) Predicate {
	return func(actor Actor, resource Resource) Decision {
		for _, p := range predicates {
			if p(actor, resource) {
				return Allow
			}
		}
		return Deny
	}
}

func All(predicates ...Predicate) Predicate {
	return func(actor Actor, resource Resource) Decision {
		for _, p := range predicates {
			if !p(actor, resource) {
				return Deny
			}
		}
		return Allow
	}
}

var (
	ViewStatement   = Any(IsAdmin, IsCreator, LeadsExcursion)
	ChangeStatement = Any(IsAdmin, All(Any(IsCreator, LeadsExcursion), NotSubmitted))
	SubmitStatement = All(Any(IsAdmin, IsCreator, LeadsExcursion), NotSubmitted)
)
