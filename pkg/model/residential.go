package model

import "time"

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryReturned  DeliveryStatus = "returned"
)

type DocumentType string

const (
	DocumentPDF         DocumentType = "PDF"
	DocumentImage       DocumentType = "IMAGE"
	DocumentSpreadsheet DocumentType = "SPREADSHEET"
	DocumentOther       DocumentType = "OTHER"
)

type IncidentStatus string

const (
	IncidentOpen       IncidentStatus = "open"
	IncidentInProgress IncidentStatus = "in_progress"
	IncidentResolved   IncidentStatus = "resolved"
	IncidentClosed     IncidentStatus = "closed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type IncidentCategory string

const (
	IncidentGeneral     IncidentCategory = "general"
	IncidentPlumbing    IncidentCategory = "plumbing"
	IncidentElectrical  IncidentCategory = "electrical"
	IncidentSecurity    IncidentCategory = "security"
	IncidentMaintenance IncidentCategory = "maintenance"
	IncidentNoise       IncidentCategory = "noise"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

type ReserveStatus string

const (
	ReservePending   ReserveStatus = "pending"
	ReserveApproved  ReserveStatus = "approved"
	ReserveRejected  ReserveStatus = "rejected"
	ReserveCancelled ReserveStatus = "cancelled"
)

type FineStatus string

const (
	FineComplete   FineStatus = "complete"
	FineIncomplete FineStatus = "incomplete"
)

type Apartment struct {
	Meta   `bson:",inline"`
	Number string `json:"number" bson:"number" validate:"required,max=20"`
	Level  int    `json:"level" bson:"level" validate:"min=0,max=200"`
	UserID string `json:"userId,omitempty" bson:"user_id,omitempty" validate:"omitempty,mongodb"`
}

type Delivery struct {
	Meta          `bson:",inline"`
	ApartmentID   string         `json:"apartmentId" bson:"apartment_id" validate:"required,mongodb"`
	ReceivedDate  time.Time      `json:"receivedDate" bson:"received_date" validate:"required"`
	DeliveredDate *time.Time     `json:"deliveredDate,omitempty" bson:"delivered_date,omitempty"`
	Status        DeliveryStatus `json:"status" bson:"status" validate:"required,oneof=pending delivered returned"`
	Description   string         `json:"description" bson:"description" validate:"max=500"`
}

type Document struct {
	Meta   `bson:",inline"`
	UserID string       `json:"userId" bson:"user_id" validate:"required,mongodb"`
	Name   string       `json:"name" bson:"name" validate:"required,max=200"`
	Type   DocumentType `json:"type" bson:"type" validate:"required,oneof=PDF IMAGE SPREADSHEET OTHER"`
	URL    string       `json:"url" bson:"url" validate:"required,url"`
	Date   time.Time    `json:"date" bson:"date" validate:"required"`
}

type Incident struct {
	Meta        `bson:",inline"`
	UserID      string           `json:"userId" bson:"user_id" validate:"required,mongodb"`
	Title       string           `json:"title" bson:"title" validate:"required,max=200"`
	Description string           `json:"description" bson:"description" validate:"max=2000"`
	Status      IncidentStatus   `json:"status" bson:"status" validate:"required,oneof=open in_progress resolved closed"`
	Priority    Priority         `json:"priority" bson:"priority" validate:"required,oneof=low medium high"`
	Category    IncidentCategory `json:"category" bson:"category" validate:"required,oneof=general plumbing electrical security maintenance noise"`
}

type Payment struct {
	Meta        `bson:",inline"`
	ApartmentID string        `json:"apartmentId,omitempty" bson:"apartment_id,omitempty" validate:"omitempty,mongodb"`
	Amount      float64       `json:"amount" bson:"amount" validate:"gt=0"`
	Concept     string        `json:"concept" bson:"concept" validate:"required,max=200"`
	DueDate     time.Time     `json:"dueDate" bson:"due_date" validate:"required"`
	Status      PaymentStatus `json:"status" bson:"status" validate:"required,oneof=pending paid overdue"`
	PaymentDate *time.Time    `json:"paymentDate,omitempty" bson:"payment_date,omitempty"`
}

type Provider struct {
	Meta       `bson:",inline"`
	Company    string  `json:"company" bson:"company" validate:"required,max=200"`
	Service    string  `json:"service" bson:"service" validate:"required,max=200"`
	Email      string  `json:"email" bson:"email" validate:"omitempty,email"`
	Phone      string  `json:"phone" bson:"phone" validate:"omitempty,e164"`
	Amount     float64 `json:"amount" bson:"amount" validate:"gte=0"`
	DocumentID string  `json:"documentId,omitempty" bson:"document_id,omitempty" validate:"omitempty,mongodb"`
}

// Reserve is a lightweight reservation request. Unlike Booking it carries no conflict rules.
type Reserve struct {
	Meta        `bson:",inline"`
	ApartmentID string        `json:"apartmentId" bson:"apartment_id" validate:"required,mongodb"`
	Facility    string        `json:"facility" bson:"facility" validate:"required,max=100"`
	Date        string        `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string        `json:"startTime" bson:"start_time" validate:"required,datetime=15:04"`
	EndTime     string        `json:"endTime" bson:"end_time" validate:"required,datetime=15:04"`
	Status      ReserveStatus `json:"status" bson:"status" validate:"required,oneof=pending approved rejected cancelled"`
}

type Announcement struct {
	Meta        `bson:",inline"`
	Title       string    `json:"title" bson:"title" validate:"required,max=200"`
	Description string    `json:"description" bson:"description" validate:"max=5000"`
	Category    string    `json:"category" bson:"category" validate:"max=50"`
	Highlight   bool      `json:"highlight" bson:"highlight"`
	ImageURL    string    `json:"imageUrl,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
	Date        time.Time `json:"date" bson:"date" validate:"required"`
}

type Fine struct {
	Meta        `bson:",inline"`
	Apartment   string     `json:"apartment" bson:"apartment" validate:"required,max=20"`
	Owner       string     `json:"owner" bson:"owner" validate:"required,max=200"`
	Amount      float64    `json:"amount" bson:"amount" validate:"gt=0"`
	Description string     `json:"description" bson:"description" validate:"max=1000"`
	Date        time.Time  `json:"date" bson:"date" validate:"required"`
	Status      FineStatus `json:"status" bson:"status" validate:"required,oneof=complete incomplete"`
}

type Visit struct {
	Meta        `bson:",inline"`
	ApartmentID string     `json:"apartmentId" bson:"apartment_id" validate:"required,mongodb"`
	VisitorName string     `json:"visitorName" bson:"visitor_name" validate:"required,max=200"`
	EntryTime   time.Time  `json:"entryTime" bson:"entry_time" validate:"required"`
	ExitTime    *time.Time `json:"exitTime,omitempty" bson:"exit_time,omitempty"`
}

// VisitPass is handed to a visitor and shown to the guard at the gate.
type VisitPass struct {
	VisitID   string    `json:"visitId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
