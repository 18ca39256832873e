package service_test

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"hms/config"
	"hms/infras/otel/mocks"
	s3Mocks "hms/infras/s3/mocks"
	requestMocks "hms/internal/domains/request/mocks"
	"hms/internal/domains/request/model"
	"hms/internal/domains/request/model/dto"
	"hms/internal/domains/request/service"
	"hms/internal/domains/request/workflow"
	userMocks "hms/internal/domains/user/mocks"
	userModel "hms/internal/domains/user/model"
	cacheMocks "hms/shared/cache/mocks"
	"hms/shared/constant"
	gDto "hms/shared/dto"
	gModel "hms/shared/model"
	"hms/shared/failure"
	"hms/shared/timezone"
)

func principalCtx(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func pendingRequest(id, userID string) model.BookingRequest {
	return model.BookingRequest{
		ID:            id,
		UserID:        userID,
		RequesterName: "Test Student",
		Department:    "engineering",
		RequestType:   model.TypeSingle,
		NumberOfRooms: 2,
		StartDate:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		Reason:        "conference accommodation for visiting team",
		Status:        model.StatusPending,
		SpocName:      "SPOC Person",
		SpocEmail:     "spoc@example.com",
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  userID,
			ModifiedBy: userID,
		},
	}
}

func TestRequestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := requestMocks.NewMockRequest(ctrl)
	mockUserRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockUserRepo, cfg, mockCache, mockOtel, mockS3)

	requester := userModel.User{
		ID:       "student-1",
		Email:    "student@example.com",
		Role:     constant.RoleStudent,
		FullName: "Test Student",
		Active:   true,
	}

	validReq := dto.CreateRequest{
		RequestType:   "single",
		Department:    "engineering",
		NumberOfRooms: 2,
		StartDate:     "2025-07-01",
		EndDate:       "2025-07-10",
		Reason:        "conference accommodation for visiting team",
		SpocName:      "SPOC Person",
		SpocEmail:     "spoc@example.com",
	}

	tests := []struct {
		name      string
		req       dto.CreateRequest
		setupMock func()
		wantErr   bool
	}{
		{
			name: "successful creation",
			req:  validReq,
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(requester, nil)

				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req model.BookingRequest) error {
						assert.Equal(t, model.StatusPending, req.Status)
						assert.Nil(t, req.Priority)
						assert.Equal(t, "student-1", req.UserID)
						assert.Equal(t, "Test Student", req.RequesterName)

						return nil
					})

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantErr: false,
		},
		{
			name: "requester not found",
			req:  validReq,
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(userModel.User{}, nil)
			},
			wantErr: true,
		},
		{
			name: "end date before start date",
			req: dto.CreateRequest{
				RequestType:   "single",
				Department:    "engineering",
				NumberOfRooms: 2,
				StartDate:     "2025-07-10",
				EndDate:       "2025-07-01",
				Reason:        "conference accommodation for visiting team",
				SpocName:      "SPOC Person",
				SpocEmail:     "spoc@example.com",
			},
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(requester, nil)
			},
			wantErr: true,
		},
		{
			name: "repository error",
			req:  validReq,
			setupMock: func() {
				mockUserRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(requester, nil)

				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			ctx := principalCtx("student-1", constant.RoleStudent)
			err := svc.Create(ctx, tt.req)

			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestService_GetAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := requestMocks.NewMockRequest(ctrl)
	mockUserRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockUserRepo, cfg, mockCache, mockOtel, mockS3)

	params := gDto.QueryParams{Page: 1, Limit: 10}

	t.Run("staff sees everything", func(t *testing.T) {
		mockCache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("cache miss")).
			Times(2)

		mockRepo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(2, nil)

		mockRepo.EXPECT().
			GetAll(gomock.Any(), params, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.BookingRequest, error) {
				clause, _ := filter.GetWhereClause()
				assert.NotContains(t, clause, model.FieldUserID)

				return []model.BookingRequest{
					pendingRequest("req-1", "student-1"),
					pendingRequest("req-2", "student-2"),
				}, nil
			})

		mockCache.EXPECT().
			Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		res, err := svc.GetAll(principalCtx("reception-1", constant.RoleReception), params, gDto.FilterGroup{})

		time.Sleep(10 * time.Millisecond)

		assert.NoError(t, err)
		assert.Len(t, res.Requests, 2)
		assert.Equal(t, 2, res.TotalData)
	})

	t.Run("students only see their own", func(t *testing.T) {
		mockCache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("cache miss")).
			Times(2)

		mockRepo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(1, nil)

		mockRepo.EXPECT().
			GetAll(gomock.Any(), params, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.BookingRequest, error) {
				clause, args := filter.GetWhereClause()
				assert.Contains(t, clause, model.FieldUserID)
				assert.Equal(t, "student-1", args[model.FieldUserID])

				return []model.BookingRequest{pendingRequest("req-1", "student-1")}, nil
			})

		mockCache.EXPECT().
			Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		res, err := svc.GetAll(principalCtx("student-1", constant.RoleStudent), params, gDto.FilterGroup{})

		time.Sleep(10 * time.Millisecond)

		assert.NoError(t, err)
		assert.Len(t, res.Requests, 1)
	})
}

func TestRequestService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := requestMocks.NewMockRequest(ctrl)
	mockUserRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockUserRepo, cfg, mockCache, mockOtel, mockS3)

	tests := []struct {
		name      string
		ctx       context.Context
		setupMock func()
		wantErr   error
	}{
		{
			name: "owner reads own request",
			ctx:  principalCtx("student-1", constant.RoleStudent),
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest("req-1", "student-1"), nil)

				mockCache.EXPECT().
					Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "student cannot read another student's request",
			ctx:  principalCtx("student-2", constant.RoleStudent),
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest("req-1", "student-1"), nil)
			},
			wantErr: failure.ResourceRestrictedError,
		},
		{
			name: "reception reads any request",
			ctx:  principalCtx("reception-1", constant.RoleReception),
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest("req-1", "student-1"), nil)

				mockCache.EXPECT().
					Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "not found",
			ctx:  principalCtx("student-1", constant.RoleStudent),
			setupMock: func() {
				mockCache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.BookingRequest{}, nil)
			},
			wantErr: failure.NotFound("booking request not found"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := svc.Get(tt.ctx, "req-1")

			time.Sleep(10 * time.Millisecond)

			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.Equal(t, failure.GetCode(tt.wantErr), failure.GetCode(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "req-1", res.ID)
			}
		})
	}
}

func TestRequestService_Decide(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := requestMocks.NewMockRequest(ctrl)
	mockUserRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockUserRepo, cfg, mockCache, mockOtel, mockS3)

	receptionApproved := pendingRequest("req-1", "student-1")
	receptionApproved.Status = model.StatusReceptionApproved

	tests := []struct {
		name      string
		ctx       context.Context
		req       dto.DecisionRequest
		setupMock func()
		wantErr   bool
	}{
		{
			name: "reception approves pending with priority",
			ctx:  principalCtx("reception-1", constant.RoleReception),
			req:  dto.DecisionRequest{Action: workflow.ActionApprove, Note: "rooms available", Priority: model.PriorityHigh},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest("req-1", "student-1"), nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, model.StatusReceptionApproved, fields[model.FieldStatus])
						assert.Equal(t, "rooms available", fields[model.FieldReceptionNote])
						assert.Equal(t, model.PriorityHigh, fields[model.FieldPriority])

						return nil
					})

				mockCache.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "reception rejects pending",
			ctx:  principalCtx("reception-1", constant.RoleReception),
			req:  dto.DecisionRequest{Action: workflow.ActionReject, Note: "no rooms left"},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest("req-1", "student-1"), nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, model.StatusRejected, fields[model.FieldStatus])
						assert.Equal(t, "no rooms left", fields[model.FieldReceptionNote])
						assert.NotContains(t, fields, model.FieldPriority)

						return nil
					})

				mockCache.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "reception approval requires priority",
			ctx:  principalCtx("reception-1", constant.RoleReception),
			req:  dto.DecisionRequest{Action: workflow.ActionApprove, Note: "rooms available"},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest("req-1", "student-1"), nil)
			},
			wantErr: true,
		},
		{
			name: "admin approves reception-approved",
			ctx:  principalCtx("admin-1", constant.RoleAdmin),
			req:  dto.DecisionRequest{Action: workflow.ActionApprove, Note: "final approval"},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(receptionApproved, nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, model.StatusApproved, fields[model.FieldStatus])
						assert.Equal(t, "final approval", fields[model.FieldAdminNote])

						return nil
					})

				mockCache.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "admin cannot set priority",
			ctx:  principalCtx("admin-1", constant.RoleAdmin),
			req:  dto.DecisionRequest{Action: workflow.ActionApprove, Note: "final approval", Priority: model.PriorityLow},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(receptionApproved, nil)
			},
			wantErr: true,
		},
		{
			name: "admin cannot decide a pending request",
			ctx:  principalCtx("admin-1", constant.RoleAdmin),
			req:  dto.DecisionRequest{Action: workflow.ActionApprove, Note: "final approval"},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest("req-1", "student-1"), nil)
			},
			wantErr: true,
		},
		{
			name: "student cannot decide",
			ctx:  principalCtx("student-1", constant.RoleStudent),
			req:  dto.DecisionRequest{Action: workflow.ActionApprove, Note: "approving my own"},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest("req-1", "student-1"), nil)
			},
			wantErr: true,
		},
		{
			name: "request not found",
			ctx:  principalCtx("reception-1", constant.RoleReception),
			req:  dto.DecisionRequest{Action: workflow.ActionApprove, Note: "rooms available", Priority: model.PriorityLow},
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.BookingRequest{}, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			err := svc.Decide(tt.ctx, "req-1", tt.req)

			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := requestMocks.NewMockRequest(ctrl)
	mockUserRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Hostel.TotalRoomCapacity = 100

	svc := service.New(mockRepo, mockUserRepo, cfg, mockCache, mockOtel, mockS3)

	approved := pendingRequest("req-1", "student-1")
	approved.Status = model.StatusApproved
	approved.NumberOfRooms = 25

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))

	mockRepo.EXPECT().
		Count(gomock.Any(), gomock.Any()).
		Return(2, nil)

	mockRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.BookingRequest{approved, pendingRequest("req-2", "student-2")}, nil)

	mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	res, err := svc.Stats(principalCtx("admin-1", constant.RoleAdmin))

	time.Sleep(10 * time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, 2, res.TotalRequests)
	assert.Equal(t, 25, res.ApprovedRooms)
	assert.Equal(t, 100, res.TotalRoomCapacity)
	assert.InDelta(t, 0.25, res.RoomUtilization, 1e-9)
	assert.Equal(t, 1, res.ByStatus[model.StatusApproved])
	assert.Equal(t, 1, res.ByStatus[model.StatusPending])
}

func TestRequestService_UploadDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := requestMocks.NewMockRequest(ctrl)
	mockUserRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()
	mockS3 := s3Mocks.NewMockS3(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.External.S3.BucketName = "hostel-documents"

	svc := service.New(mockRepo, mockUserRepo, cfg, mockCache, mockOtel, mockS3)

	approved := pendingRequest("req-1", "student-1")
	approved.Status = model.StatusApproved

	uploadReq := dto.UploadDocumentRequest{
		Document: &multipart.FileHeader{Filename: "id-card.pdf"},
	}

	tests := []struct {
		name      string
		ctx       context.Context
		setupMock func()
		wantErr   bool
	}{
		{
			name: "owner uploads to approved request",
			ctx:  principalCtx("student-1", constant.RoleStudent),
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(approved, nil)

				mockS3.EXPECT().
					UploadFile(gomock.Any(), "hostel-documents", "student-1/req-1", gomock.Any(), gomock.Any(), gomock.Any()).
					Return("https://cdn.example.com/student-1/req-1/doc.pdf", nil)

				mockRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, "https://cdn.example.com/student-1/req-1/doc.pdf", fields[model.FieldDocuments])

						return nil
					})

				mockCache.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()

				mockCache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "only the owner may upload",
			ctx:  principalCtx("student-2", constant.RoleStudent),
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(approved, nil)
			},
			wantErr: true,
		},
		{
			name: "upload rejected before approval",
			ctx:  principalCtx("student-1", constant.RoleStudent),
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingRequest("req-1", "student-1"), nil)
			},
			wantErr: true,
		},
		{
			name: "s3 error",
			ctx:  principalCtx("student-1", constant.RoleStudent),
			setupMock: func() {
				mockRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(approved, nil)

				mockS3.EXPECT().
					UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return("", errors.New("upload failed"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			res, err := svc.UploadDocument(tt.ctx, "req-1", uploadReq)

			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, res.URL)
				assert.Equal(t, "id-card.pdf", res.FileName)
			}
		})
	}
}
