package model

import (
	"hms/shared/model"
	"time"
)

const (
	TableName  = "booking_requests"
	EntityName = "booking_request"

	FieldID            = "id"
	FieldUserID        = "user_id"
	FieldRequesterName = "requester_name"
	FieldDepartment    = "department"
	FieldRequestType   = "request_type"
	FieldNumberOfRooms = "number_of_rooms"
	FieldStartDate     = "start_date"
	FieldEndDate       = "end_date"
	FieldReason        = "reason"
	FieldStatus        = "status"
	FieldPriority      = "priority"
	FieldSpocName      = "spoc_name"
	FieldSpocEmail     = "spoc_email"
	FieldReceptionNote = "reception_note"
	FieldAdminNote     = "admin_note"
	FieldDocuments     = "documents"
)

// Statuses a booking request moves through. New requests always start
// pending, reception moves them to reception-approved or rejected,
// administration moves reception-approved ones to approved or reconsidered.
const (
	StatusPending           = "pending"
	StatusReceptionApproved = "reception-approved"
	StatusApproved          = "approved"
	StatusRejected          = "rejected"
	StatusReconsidered      = "reconsidered"
)

// Priority tiers reception assigns when it first reviews a request.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Request types accepted on submission.
const (
	TypeSingle = "single"
	TypeShared = "shared"
	TypeFamily = "family"
	TypeGuest  = "guest"
)

type BookingRequest struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	RequesterName string    `db:"requester_name"`
	Department    string    `db:"department"`
	RequestType   string    `db:"request_type"`
	NumberOfRooms int       `db:"number_of_rooms"`
	StartDate     time.Time `db:"start_date"`
	EndDate       time.Time `db:"end_date"`
	Reason        string    `db:"reason"`
	Status        string    `db:"status"`
	Priority      *string   `db:"priority"`
	SpocName      string    `db:"spoc_name"`
	SpocEmail     string    `db:"spoc_email"`
	ReceptionNote *string   `db:"reception_note"`
	AdminNote     *string   `db:"admin_note"`
	Documents     *string   `db:"documents"`
	model.Metadata
}
