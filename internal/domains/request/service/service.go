package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"path/filepath"

	"hms/config"
	"hms/infras/otel"
	"hms/infras/s3"
	"hms/internal/domains/request/model"
	"hms/internal/domains/request/model/dto"
	"hms/internal/domains/request/repository"
	"hms/internal/domains/request/workflow"
	userModel "hms/internal/domains/user/model"
	userRepo "hms/internal/domains/user/repository"
	"hms/shared"
	"hms/shared/cache"
	"hms/shared/constant"
	gDto "hms/shared/dto"
	"hms/shared/failure"
	"hms/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetRequest    = "request:get"
	cacheGetAllRequest = "request:gets"
	cacheCountRequest  = "request:count"
	cacheStatsRequest  = "request:stats"
)

type Request interface {
	Create(ctx context.Context, req dto.CreateRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetRequestsResponse, error)
	GetMine(ctx context.Context, req gDto.QueryParams) (dto.GetRequestsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.RequestResponse, error)
	Decide(ctx context.Context, id string, req dto.DecisionRequest) error
	Stats(ctx context.Context) (dto.StatsResponse, error)
	UploadDocument(ctx context.Context, id string, req dto.UploadDocumentRequest) (dto.UploadDocumentResponse, error)
}

type serviceImpl struct {
	repo     repository.Request
	userRepo userRepo.User
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
	s3       s3.S3
}

func New(repo repository.Request, userRepo userRepo.User, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Request {
	return &serviceImpl{
		repo:     repo,
		userRepo: userRepo,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
		s3:       s3,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	user, err := s.userRepo.Get(ctx, shared.FilterByID(userID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get requester")

		return fmt.Errorf("failed to get requester: %w", err)
	}

	if user.ID == constant.Empty {
		return failure.Unauthorized("requester not found") //nolint:wrapcheck
	}

	request, err := req.ToModel(userID, user.FullName)
	if err != nil {
		log.Error().Err(err).Msg("failed to build booking request")

		return err
	}

	if err = s.repo.Insert(ctx, request); err != nil {
		log.Error().Err(err).Msg("failed to create booking request")

		return fmt.Errorf("failed to create booking request: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllRequest)
		shared.InvalidateCaches(c, s.cache, cacheCountRequest)
		shared.InvalidateCaches(c, s.cache, cacheStatsRequest)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetRequestsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter = s.scopeToRole(ctx, filter)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllRequest, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking requests")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count booking requests")

		return res, err
	}

	requests, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking requests")

		return res, fmt.Errorf("failed to get booking requests: %w", err)
	}

	res.FromModels(requests, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking requests to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetMine(ctx context.Context, req gDto.QueryParams) (res dto.GetRequestsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetMine")
	defer scope.End()
	defer scope.TraceIfError(err)

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldUserID,
				Value:    userID,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}

	return s.GetAll(ctx, req, filter)
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (total int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountRequest, req, filter)

	err = s.cache.Get(ctx, cacheKey, &total)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking request count")

		return total, nil
	}

	total, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count booking requests")

		return total, fmt.Errorf("failed to count booking requests: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, total, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking request count to cache")
		}
	}()

	return total, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.RequestResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetRequest, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking request")

		return res, s.authorizeRead(ctx, res.UserID) //nolint:wrapcheck
	}

	request, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking request")

		return res, fmt.Errorf("failed to get booking request: %w", err)
	}

	if request.ID == constant.Empty {
		return res, failure.NotFound("booking request not found") //nolint:wrapcheck
	}

	if err = s.authorizeRead(ctx, request.UserID); err != nil {
		return dto.RequestResponse{}, err
	}

	res.FromModel(request)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking request to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Decide(ctx context.Context, id string, req dto.DecisionRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Decide")
	defer scope.End()
	defer scope.TraceIfError(err)

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	request, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking request")

		return fmt.Errorf("failed to get booking request: %w", err)
	}

	if request.ID == constant.Empty {
		return failure.NotFound("booking request not found") //nolint:wrapcheck
	}

	rule, err := workflow.Transition(role, req.Action, request.Status)
	if err != nil {
		log.Warn().
			Str("role", role).
			Str("action", req.Action).
			Str("status", request.Status).
			Msg("rejected invalid transition")

		return err
	}

	if req.Priority != constant.Empty && !rule.SetsPriority {
		return failure.BadRequestFromString("only reception assigns priority") //nolint:wrapcheck
	}

	if rule.SetsPriority && req.Action == workflow.ActionApprove && req.Priority == constant.Empty {
		return failure.BadRequestFromString("priority is required on reception approval") //nolint:wrapcheck
	}

	updatedFields := map[string]any{
		model.FieldStatus: rule.To,
		rule.NoteField:    req.Note,
		"modified_at":     timezone.Now(),
		"modified_by":     userID,
	}

	if req.Priority != constant.Empty {
		updatedFields[model.FieldPriority] = req.Priority
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update booking request")

		return fmt.Errorf("failed to update booking request: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetRequest, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking request from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllRequest)
		shared.InvalidateCaches(c, s.cache, cacheCountRequest)
		shared.InvalidateCaches(c, s.cache, cacheStatsRequest)
	}()

	return nil
}

func (s *serviceImpl) Stats(ctx context.Context) (res dto.StatsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Stats")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheStatsRequest, "all")

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking request stats")

		return res, nil
	}

	total, err := s.repo.Count(ctx, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to count booking requests")

		return res, fmt.Errorf("failed to count booking requests: %w", err)
	}

	requests, err := s.repo.GetAll(ctx, gDto.QueryParams{Page: 1, Limit: total}, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking requests")

		return res, fmt.Errorf("failed to get booking requests: %w", err)
	}

	capacity := s.cfg.Hostel.TotalRoomCapacity
	stats := workflow.Aggregate(requests, capacity)

	res = dto.StatsResponse{
		TotalRequests:        stats.Total,
		ByStatus:             stats.ByStatus,
		ByPriority:           stats.ByPriority,
		ByDepartment:         stats.ByDepartment,
		ApprovedRooms:        stats.ApprovedRooms,
		TotalRoomCapacity:    capacity,
		RoomUtilization:      stats.RoomUtilization,
		AvgProcessingSeconds: stats.AvgProcessingSeconds,
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking request stats to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) UploadDocument(ctx context.Context, id string, req dto.UploadDocumentRequest) (res dto.UploadDocumentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UploadDocument")
	defer scope.End()
	defer scope.TraceIfError(err)

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	request, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking request")

		return res, fmt.Errorf("failed to get booking request: %w", err)
	}

	if request.ID == constant.Empty {
		return res, failure.NotFound("booking request not found") //nolint:wrapcheck
	}

	if request.UserID != userID {
		return res, failure.ResourceRestrictedError //nolint:wrapcheck
	}

	if request.Status != model.StatusApproved {
		return res, failure.Conflict("documents can only be uploaded for approved requests") //nolint:wrapcheck
	}

	fileName := fmt.Sprintf("%d%s", timezone.Now().UnixNano(), filepath.Ext(req.Document.Filename))
	directory := fmt.Sprintf("%s/%s", request.UserID, request.ID)

	url, err := s.s3.UploadFile(ctx, s.cfg.External.S3.BucketName, directory, req.DocumentFile, req.Document, fileName)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload document to S3")

		return res, fmt.Errorf("failed to upload document to S3: %w", err)
	}

	updatedFields := map[string]any{
		model.FieldDocuments: url,
		"modified_at":        timezone.Now(),
		"modified_by":        userID,
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to attach document to booking request")

		return res, fmt.Errorf("failed to attach document to booking request: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetRequest, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking request from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllRequest)
	}()

	res.URL = url
	res.FileName = req.Document.Filename

	return res, nil
}

// scopeToRole narrows a list filter so students only ever see their own
// requests. Reception and administration see everything.
func (s *serviceImpl) scopeToRole(ctx context.Context, filter gDto.FilterGroup) gDto.FilterGroup {
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	if role != constant.RoleStudent {
		return filter
	}

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	owned := gDto.Filter{
		Field:    model.FieldUserID,
		Value:    userID,
		Operator: gDto.FilterOperatorEq,
		Table:    model.TableName,
	}

	if len(filter.Filters) == 0 {
		return gDto.FilterGroup{Filters: []any{owned}}
	}

	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{filter, owned},
	}
}

// authorizeRead enforces ownership for students on single-request reads.
func (s *serviceImpl) authorizeRead(ctx context.Context, ownerID string) error {
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	if role != constant.RoleStudent {
		return nil
	}

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if userID != ownerID {
		return failure.ResourceRestrictedError //nolint:wrapcheck
	}

	return nil
}
