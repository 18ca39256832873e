package dto

import (
	"mime/multipart"
	"time"

	"hms/internal/domains/request/model"
	"hms/shared"
	"hms/shared/constant"
	gDto "hms/shared/dto"
	"hms/shared/failure"
	gModel "hms/shared/model"
	"hms/shared/timezone"

	"github.com/google/uuid"
)

type CreateRequest struct {
	RequestType   string `json:"request_type"    validate:"required,oneof=single shared family guest"`
	Department    string `json:"department"      validate:"required,max=100"`
	NumberOfRooms int    `json:"number_of_rooms" validate:"required,gte=1,lte=50"`
	StartDate     string `json:"start_date"      validate:"required"`
	EndDate       string `json:"end_date"        validate:"required"`
	Reason        string `json:"reason"          validate:"required,min=10,max=1000"`
	SpocName      string `json:"spoc_name"       validate:"required,max=100"`
	SpocEmail     string `json:"spoc_email"      validate:"required,email,max=100"`
}

// ToModel builds a new booking request owned by the authenticated user. The
// status is always pending; submitters never choose status or priority.
func (c *CreateRequest) ToModel(userID, requesterName string) (model.BookingRequest, error) {
	startDate, err := time.Parse(constant.DateOnlyFormat, c.StartDate)
	if err != nil {
		return model.BookingRequest{}, failure.BadRequest(err) //nolint:wrapcheck
	}

	endDate, err := time.Parse(constant.DateOnlyFormat, c.EndDate)
	if err != nil {
		return model.BookingRequest{}, failure.BadRequest(err) //nolint:wrapcheck
	}

	if !endDate.After(startDate) {
		return model.BookingRequest{}, failure.BadRequestFromString("end_date must be after start_date") //nolint:wrapcheck
	}

	return model.BookingRequest{
		ID:            uuid.NewString(),
		UserID:        userID,
		RequesterName: requesterName,
		Department:    c.Department,
		RequestType:   c.RequestType,
		NumberOfRooms: c.NumberOfRooms,
		StartDate:     startDate,
		EndDate:       endDate,
		Reason:        c.Reason,
		Status:        model.StatusPending,
		SpocName:      c.SpocName,
		SpocEmail:     c.SpocEmail,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  userID,
			ModifiedBy: userID,
		},
	}, nil
}

type DecisionRequest struct {
	Action   string `json:"action"   validate:"required,oneof=approve reject reconsider"`
	Note     string `json:"note"     validate:"required,min=3,max=1000"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type RequestResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	RequesterName string  `json:"requester_name"`
	Department    string  `json:"department"`
	RequestType   string  `json:"request_type"`
	NumberOfRooms int     `json:"number_of_rooms"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	Priority      *string `json:"priority"`
	SpocName      string  `json:"spoc_name"`
	SpocEmail     string  `json:"spoc_email"`
	ReceptionNote *string `json:"reception_note"`
	AdminNote     *string `json:"admin_note"`
	Documents     *string `json:"documents"`
	gDto.Metadata
}

func (r *RequestResponse) FromModel(model model.BookingRequest) {
	r.ID = model.ID
	r.UserID = model.UserID
	r.RequesterName = model.RequesterName
	r.Department = model.Department
	r.RequestType = model.RequestType
	r.NumberOfRooms = model.NumberOfRooms
	r.StartDate = model.StartDate.Format(constant.DateOnlyFormat)
	r.EndDate = model.EndDate.Format(constant.DateOnlyFormat)
	r.Reason = model.Reason
	r.Status = model.Status
	r.Priority = model.Priority
	r.SpocName = model.SpocName
	r.SpocEmail = model.SpocEmail
	r.ReceptionNote = model.ReceptionNote
	r.AdminNote = model.AdminNote
	r.Documents = model.Documents
	r.Metadata.FromModel(model.Metadata)
}

type GetRequestsResponse struct {
	Requests  []RequestResponse `json:"requests"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetRequestsResponse) FromModels(models []model.BookingRequest, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Requests = make([]RequestResponse, len(models))
	for i, m := range models {
		r.Requests[i].FromModel(m)
	}
}

type StatsResponse struct {
	TotalRequests        int            `json:"total_requests"`
	ByStatus             map[string]int `json:"by_status"`
	ByPriority           map[string]int `json:"by_priority"`
	ByDepartment         map[string]int `json:"by_department"`
	ApprovedRooms        int            `json:"approved_rooms"`
	TotalRoomCapacity    int            `json:"total_room_capacity"`
	RoomUtilization      float64        `json:"room_utilization"`
	AvgProcessingSeconds float64        `json:"avg_processing_seconds"`
}

type UploadDocumentRequest struct {
	Document     *multipart.FileHeader `json:"document" swaggerignore:"true" validate:"required,mimetypes=application/pdf application/msword application/vnd.openxmlformats-officedocument.wordprocessingml.document,maxfilesize=5"`
	DocumentFile multipart.File        `json:"-"`
}

type UploadDocumentResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}
