package residential

import (
	mongodb "milovat/pkg/db/mongo"
	"milovat/pkg/model"
	"milovat/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var adminOnly = []model.Role{model.RoleAdmin}

var Apartments = Resource[*model.Apartment]{
	Name:       "Apartment",
	Path:       "/apartments",
	Collection: "Apartments",
	Ops:        OpAll,
	Sort:       bson.D{{Key: "level", Value: 1}, {Key: "number", Value: 1}},
	Filters:    map[string]string{"userId": "user_id"},
	WriteRoles: adminOnly,
	New:        func() *model.Apartment { return &model.Apartment{} },
	Sanitize: func(a *model.Apartment) {
		a.Number = sanitizer.TrimAndNormalize(a.Number)
	},
}

var Deliveries = Resource[*model.Delivery]{
	Name:       "Delivery",
	Path:       "/deliveries",
	Collection: "Deliveries",
	Ops:        OpAll,
	Sort:       bson.D{{Key: "received_date", Value: -1}},
	Filters:    map[string]string{"apartmentId": "apartment_id", "status": "status"},
	WriteRoles: []model.Role{model.RoleAdmin, model.RoleGuard},
	New:        func() *model.Delivery { return &model.Delivery{} },
	Sanitize: func(d *model.Delivery) {
		d.Description = sanitizer.TrimAndNormalize(d.Description)
		d.Status = model.DeliveryStatus(sanitizer.NormalizeLabel(string(d.Status)))
	},
	Defaults: func(d *model.Delivery) {
		if d.Status == "" {
			d.Status = model.DeliveryPending
		}
		if d.ReceivedDate.IsZero() {
			d.ReceivedDate = model.Now()
		}
	},
}

var Documents = Resource[*model.Document]{
	Name:       "Document",
	Path:       "/documents",
	Collection: "Documents",
	Ops:        OpAll,
	Sort:       bson.D{{Key: "date", Value: -1}},
	Filters:    map[string]string{"userId": "user_id", "type": "type"},
	WriteRoles: adminOnly,
	New:        func() *model.Document { return &model.Document{} },
	Sanitize: func(d *model.Document) {
		d.Name = sanitizer.NormalizeName(d.Name)
		d.URL = sanitizer.NormalizeURL(d.URL)
	},
	Defaults: func(d *model.Document) {
		if d.Type == "" {
			d.Type = model.DocumentOther
		}
		if d.Date.IsZero() {
			d.Date = model.Now()
		}
	},
}

var Incidents = Resource[*model.Incident]{
	Name:       "Incident",
	Path:       "/incidents",
	Collection: "Incidents",
	Ops:        OpAll,
	Sort:       bson.D{{Key: "created_at", Value: -1}},
	Filters: map[string]string{
		"userId":   "user_id",
		"status":   "status",
		"priority": "priority",
		"category": "category",
	},
	New: func() *model.Incident { return &model.Incident{} },
	Sanitize: func(i *model.Incident) {
		i.Title = sanitizer.TrimAndNormalize(i.Title)
		i.Description = sanitizer.TrimAndNormalize(i.Description)
		i.Status = model.IncidentStatus(sanitizer.NormalizeLabel(string(i.Status)))
		i.Priority = model.Priority(sanitizer.NormalizeLabel(string(i.Priority)))
		i.Category = model.IncidentCategory(sanitizer.NormalizeLabel(string(i.Category)))
	},
	Defaults: func(i *model.Incident) {
		if i.Status == "" {
			i.Status = model.IncidentOpen
		}
		if i.Priority == "" {
			i.Priority = model.PriorityMedium
		}
		if i.Category == "" {
			i.Category = model.IncidentGeneral
		}
	},
}

var Payments = Resource[*model.Payment]{
	Name:       "Payment",
	Path:       "/payments",
	Collection: "Payments",
	Ops:        OpAll,
	Sort:       bson.D{{Key: "due_date", Value: -1}},
	Filters:    map[string]string{"apartmentId": "apartment_id", "status": "status"},
	WriteRoles: adminOnly,
	New:        func() *model.Payment { return &model.Payment{} },
	Sanitize: func(p *model.Payment) {
		p.Concept = sanitizer.TrimAndNormalize(p.Concept)
		p.Status = model.PaymentStatus(sanitizer.NormalizeLabel(string(p.Status)))
	},
	Defaults: func(p *model.Payment) {
		if p.Status == "" {
			p.Status = model.PaymentPending
		}
	},
}

var Providers = Resource[*model.Provider]{
	Name:       "Provider",
	Path:       "/providers",
	Collection: "Providers",
	Ops:        OpAll,
	Sort:       bson.D{{Key: "company", Value: 1}},
	Filters:    map[string]string{"service": "service"},
	WriteRoles: adminOnly,
	New:        func() *model.Provider { return &model.Provider{} },
	Sanitize: func(p *model.Provider) {
		p.Company = sanitizer.NormalizeName(p.Company)
		p.Service = sanitizer.TrimAndNormalize(p.Service)
		p.Email = sanitizer.NormalizeEmail(p.Email)
		p.Phone = sanitizer.NormalizePhone(p.Phone)
	},
}

var Reserves = Resource[*model.Reserve]{
	Name:       "Reserve",
	Path:       "/reserves",
	Collection: "Reserves",
	Ops:        OpAll,
	Sort:       bson.D{{Key: "date", Value: 1}, {Key: "start_time", Value: 1}},
	Filters: map[string]string{
		"apartmentId": "apartment_id",
		"facility":    "facility",
		"date":        "date",
		"status":      "status",
	},
	New: func() *model.Reserve { return &model.Reserve{} },
	Sanitize: func(r *model.Reserve) {
		r.Facility = sanitizer.NormalizeFacility(r.Facility)
		r.Status = model.ReserveStatus(sanitizer.NormalizeLabel(string(r.Status)))
	},
	Defaults: func(r *model.Reserve) {
		if r.Status == "" {
			r.Status = model.ReservePending
		}
	},
}

var Announcements = Resource[*model.Announcement]{
	Name:       "Announcement",
	Path:       "/announcements",
	Collection: "Announcements",
	Ops:        OpList | OpGet | OpCreate | OpDelete,
	Sort:       bson.D{{Key: "date", Value: -1}},
	Filters:    map[string]string{"category": "category"},
	WriteRoles: adminOnly,
	New:        func() *model.Announcement { return &model.Announcement{} },
	Sanitize: func(a *model.Announcement) {
		a.Title = sanitizer.TrimAndNormalize(a.Title)
		a.Category = sanitizer.NormalizeLabel(a.Category)
		a.ImageURL = sanitizer.NormalizeURL(a.ImageURL)
	},
	Defaults: func(a *model.Announcement) {
		if a.Date.IsZero() {
			a.Date = model.Now()
		}
	},
}

// Fines settle on a bodiless PATCH.
var Fines = Resource[*model.Fine]{
	Name:       "Fine",
	Path:       "/fines",
	Collection: "Fines",
	Ops:        OpList | OpCreate | OpPatch | OpDelete,
	Sort:       bson.D{{Key: "date", Value: -1}},
	Filters:    map[string]string{"apartment": "apartment", "status": "status"},
	WriteRoles: adminOnly,
	New:        func() *model.Fine { return &model.Fine{} },
	Sanitize: func(f *model.Fine) {
		f.Apartment = sanitizer.TrimAndNormalize(f.Apartment)
		f.Owner = sanitizer.NormalizeName(f.Owner)
		f.Status = model.FineStatus(sanitizer.NormalizeLabel(string(f.Status)))
	},
	Defaults: func(f *model.Fine) {
		if f.Status == "" {
			f.Status = model.FineIncomplete
		}
		if f.Date.IsZero() {
			f.Date = model.Now()
		}
	},
	EmptyPatch: func(f *model.Fine) {
		f.Status = model.FineComplete
	},
}

var Visits = Resource[*model.Visit]{
	Name:       "Visit",
	Path:       "/visits",
	Collection: "Visits",
	Ops:        OpAll,
	Sort:       bson.D{{Key: "entry_time", Value: -1}},
	Filters:    map[string]string{"apartmentId": "apartment_id"},
	New:        func() *model.Visit { return &model.Visit{} },
	Sanitize: func(v *model.Visit) {
		v.VisitorName = sanitizer.NormalizeName(v.VisitorName)
	},
	Defaults: func(v *model.Visit) {
		if v.EntryTime.IsZero() {
			v.EntryTime = model.Now()
		}
	},
}

// NewStore opens the collection backing res.
func NewStore[T model.Record](db *mongo.Database, res Resource[T], timeouts mongodb.Timeouts) *mongodb.Store[T] {
	return mongodb.NewStore(db.Collection(res.Collection), res.New, timeouts)
}
