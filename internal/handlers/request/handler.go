package request

import (
	"net/http"

	"hms/infras/otel"
	"hms/internal/domains/request/model"
	"hms/internal/domains/request/model/dto"
	"hms/internal/domains/request/service"
	"hms/shared/constant"
	gDto "hms/shared/dto"
	"hms/shared/validator"
	"hms/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Request
	otel    otel.Otel
}

func New(service service.Request, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/requests", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateRequest)
		routerGroup.Get("/", handler.GetRequests)
		routerGroup.Get("/myrequests", handler.GetMyRequests)
		routerGroup.Get("/stats", handler.GetRequestStats)
		routerGroup.Get("/{id}", handler.GetRequestByID)
		routerGroup.Post("/{id}/decision", handler.DecideRequest)
		routerGroup.Post("/{id}/documents", handler.UploadDocument)
	})
}

// CreateRequest handles submission of a new booking request.
// @Summary Submit a booking request
// @Description Submit a new hostel room booking request. New requests always start in pending status.
// @Tags Request
// @Accept json
// @Produce json
// @Param request body dto.CreateRequest true "Create Booking Request"
// @Success 201 {object} response.Message "Booking request submitted successfully"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/requests [post]
// @Security BearerAuth
func (handler *Handler) CreateRequest(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateRequest")
	defer scope.End()

	req := dto.CreateRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking request")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking request submitted successfully by user " + user)

	response.WithMessage(writer, http.StatusCreated, "Booking request submitted successfully")
}

// GetRequests retrieves booking requests based on query parameters.
// @Summary Get booking requests
// @Description Retrieve booking requests with optional filtering and pagination. Students only receive their own requests.
// @Tags Request
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (pending, reception-approved, approved, rejected, reconsidered)"
// @Param priority query string false "Filter by priority (low, medium, high)"
// @Param department query string false "Filter by department"
// @Success 200 {object} dto.GetRequestsResponse "List of booking requests"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/requests [get]
// @Security BearerAuth
func (handler *Handler) GetRequests(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRequests")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := filtersFromQuery(r)

	requests, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking requests")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking requests retrieved successfully")

	response.WithJSON(w, http.StatusOK, requests)
}

// GetMyRequests retrieves the authenticated user's booking requests.
// @Summary Get my booking requests
// @Description Retrieve all booking requests submitted by the currently authenticated user.
// @Tags Request
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} dto.GetRequestsResponse "List of user's booking requests"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/requests/myrequests [get]
// @Security BearerAuth
func (handler *Handler) GetMyRequests(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyRequests")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	requests, err := handler.service.GetMine(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get user booking requests")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("User booking requests retrieved successfully")

	response.WithJSON(w, http.StatusOK, requests)
}

// GetRequestStats retrieves dashboard aggregates over all booking requests.
// @Summary Get booking request statistics
// @Description Retrieve counts by status, priority and department, room utilization and average processing time.
// @Tags Request
// @Accept json
// @Produce json
// @Success 200 {object} dto.StatsResponse "Booking request statistics"
// @Failure 401 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/requests/stats [get]
// @Security BearerAuth
func (handler *Handler) GetRequestStats(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRequestStats")
	defer scope.End()

	stats, err := handler.service.Stats(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking request stats")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking request stats retrieved successfully")

	response.WithJSON(w, http.StatusOK, stats)
}

// GetRequestByID retrieves a booking request by its ID.
// @Summary Get a booking request by ID
// @Description Retrieve a booking request by its unique identifier. Students can only access their own requests.
// @Tags Request
// @Accept json
// @Produce json
// @Param id path string true "Booking Request ID"
// @Success 200 {object} response.Data[dto.RequestResponse] "Booking request details"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/requests/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetRequestByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRequestByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	request, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking request by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking request retrieved successfully")

	response.WithJSON(w, http.StatusOK, request)
}

// DecideRequest applies an approval workflow decision to a booking request.
// @Summary Decide on a booking request
// @Description Apply an approve, reject or reconsider decision. Reception decides on pending requests, administration on reception-approved ones.
// @Tags Request
// @Accept json
// @Produce json
// @Param id path string true "Booking Request ID"
// @Param request body dto.DecisionRequest true "Decision Request"
// @Success 200 {object} response.Message "Decision applied successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/requests/{id}/decision [post]
// @Security BearerAuth
func (handler *Handler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DecideRequest")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.DecisionRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Decide(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to decide on booking request")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Decision applied successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Decision applied successfully")
}

// UploadDocument handles document upload for an approved booking request.
// @Summary Upload a supporting document
// @Description Upload a PDF or Word document for an approved booking request owned by the authenticated user.
// @Tags Request
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Booking Request ID"
// @Param file formData file true "Document to upload (pdf, doc, docx, max 5 MB)"
// @Success 200 {object} dto.UploadDocumentResponse "Document uploaded successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/requests/{id}/documents [post]
// @Security BearerAuth
func (handler *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UploadDocument")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")

		response.WithError(w, err)

		return
	}

	file, fileHeader, err := r.FormFile(constant.FormFile)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get file from form")

		response.WithError(w, err)

		return
	}
	defer file.Close()

	req := dto.UploadDocumentRequest{
		Document:     fileHeader,
		DocumentFile: file,
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("rejected document upload")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.UploadDocument(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to upload document")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Document uploaded successfully by user " + user)

	response.WithJSON(w, http.StatusOK, res)
}

func filtersFromQuery(r *http.Request) gDto.FilterGroup {
	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	for _, field := range []string{model.FieldStatus, model.FieldPriority, model.FieldDepartment, model.FieldRequestType} {
		if value := r.URL.Query().Get(field); value != "" {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				Field:    field,
				Operator: gDto.FilterOperatorEq,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	return filterGroup
}
