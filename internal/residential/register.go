package residential

import (
	"milovat/pkg/auth"
	"milovat/pkg/contracts"
	mongodb "milovat/pkg/db/mongo"
	"milovat/pkg/logger"
	"milovat/pkg/model"
	"milovat/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
)

type Deps struct {
	DB        *mongo.Database
	Timeouts  mongodb.Timeouts
	Validator *validation.Validator
	Gate      auth.Gate
	Log       *logger.Logger
}

// Handlers wires every residential resource to its collection.
func Handlers(d Deps) []contracts.Handler {
	return []contracts.Handler{
		build(d, Apartments),
		build(d, Deliveries),
		build(d, Documents),
		build(d, Incidents),
		build(d, Payments),
		build(d, Providers),
		build(d, Reserves),
		build(d, Announcements),
		build(d, Fines),
		build(d, Visits),
	}
}

func build[T model.Record](d Deps, res Resource[T]) contracts.Handler {
	svc := NewService[T](res, NewStore(d.DB, res, d.Timeouts), d.Validator, d.Log)
	return NewHandler[T](res, svc, d.Gate, d.Log)
}

// Collections lists the collection names owned by this package.
func Collections() []string {
	return []string{
		Apartments.Collection,
		Deliveries.Collection,
		Documents.Collection,
		Incidents.Collection,
		Payments.Collection,
		Providers.Collection,
		Reserves.Collection,
		Announcements.Collection,
		Fines.Collection,
		Visits.Collection,
	}
}
