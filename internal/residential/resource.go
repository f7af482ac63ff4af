package residential

import (
	"milovat/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

// Ops is the set of operations a resource exposes.
type Ops uint8

const (
	OpList Ops = 1 << iota
	OpGet
	OpCreate
	OpPatch
	OpDelete

	OpAll = OpList | OpGet | OpCreate | OpPatch | OpDelete
)

func (o Ops) Has(op Ops) bool {
	return o&op == op
}

// Resource describes one residential collection and how its records are prepared.
type Resource[T model.Record] struct {
	// Name is used in error messages, e.g. "Apartment not found".
	Name       string
	Path       string
	Collection string
	Ops        Ops
	Sort       bson.D

	// Filters maps list query parameters onto stored fields for equality matching.
	Filters map[string]string

	// WriteRoles restricts create, patch and delete. Empty means any authenticated caller.
	WriteRoles []model.Role

	New      func() T
	Sanitize func(T)
	Defaults func(T)

	// EmptyPatch, when set, is applied to the stored record for a PATCH without a body.
	EmptyPatch func(T)
}

func (r Resource[T]) sort() bson.D {
	if len(r.Sort) > 0 {
		return r.Sort
	}
	return bson.D{{Key: "_id", Value: 1}}
}

func (r Resource[T]) sanitize(rec T) {
	if r.Sanitize != nil {
		r.Sanitize(rec)
	}
}

func (r Resource[T]) applyDefaults(rec T) {
	if r.Defaults != nil {
		r.Defaults(rec)
	}
}
