package payments

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"docufind/backend/internal/payments/momo"
	"docufind/backend/internal/reports"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreatePayment(ctx context.Context, p *Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GrantContactAccess(ctx context.Context, access *ContactAccess) error {
	args := m.Called(ctx, access)
	return args.Error(0)
}

func (m *MockRepository) HasContactAccess(ctx context.Context, reportType string, reportID int64, userEmail string) (bool, error) {
	args := m.Called(ctx, reportType, reportID, userEmail)
	return args.Bool(0), args.Error(1)
}

// MockGateway is a mock implementation of the Gateway interface
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) RequestToPay(ctx context.Context, in momo.RequestToPayInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockGateway) Status(ctx context.Context, referenceID string) (*momo.StatusResult, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*momo.StatusResult), args.Error(1)
}

// MockReportService is a mock implementation of reports.Service
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) DocumentTypes(ctx context.Context) ([]reports.DocumentType, error) {
	args := m.Called(ctx)
	return args.Get(0).([]reports.DocumentType), args.Error(1)
}

func (m *MockReportService) CreateLost(ctx context.Context, req reports.CreateLostRequest) (*reports.PublicReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.PublicReport), args.Error(1)
}

func (m *MockReportService) CreateFound(ctx context.Context, req reports.CreateFoundRequest) (*reports.PublicReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.PublicReport), args.Error(1)
}

func (m *MockReportService) SearchLost(ctx context.Context, filter reports.SearchFilter) ([]reports.PublicReport, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]reports.PublicReport), args.Error(1)
}

func (m *MockReportService) SearchFound(ctx context.Context, filter reports.SearchFilter) ([]reports.PublicReport, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]reports.PublicReport), args.Error(1)
}

func (m *MockReportService) GetPublic(ctx context.Context, reportType reports.ReportType, id int64) (*reports.PublicReport, error) {
	args := m.Called(ctx, reportType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.PublicReport), args.Error(1)
}

func (m *MockReportService) Get(ctx context.Context, reportType reports.ReportType, id int64) (*reports.Record, error) {
	args := m.Called(ctx, reportType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.Record), args.Error(1)
}

func (m *MockReportService) Full(ctx context.Context, reportType reports.ReportType, id int64) (*reports.FullReport, error) {
	args := m.Called(ctx, reportType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.FullReport), args.Error(1)
}

func (m *MockReportService) Contact(ctx context.Context, reportType reports.ReportType, id int64) (*reports.ContactInfo, error) {
	args := m.Called(ctx, reportType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reports.ContactInfo), args.Error(1)
}

func (m *MockReportService) OpenImage(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockReportService) Deactivate(ctx context.Context, reportType reports.ReportType, id int64) error {
	args := m.Called(ctx, reportType, id)
	return args.Error(0)
}

func (m *MockReportService) ActivatePremium(ctx context.Context, lostID int64, paymentID uuid.UUID, expiresAt time.Time) error {
	args := m.Called(ctx, lostID, paymentID, expiresAt)
	return args.Error(0)
}

func (m *MockReportService) ExpirePremium(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReportService) SetMatchHook(hook reports.MatchHook) {
	m.Called(hook)
}

func newTestService(repo *MockRepository, gateway *MockGateway, reportSvc *MockReportService) Service {
	return NewService(repo, gateway, reportSvc, 2000, 500, zap.NewNop())
}

func TestRequestContactPayment(t *testing.T) {
	mockRepo := new(MockRepository)
	mockGateway := new(MockGateway)
	mockReports := new(MockReportService)
	service := newTestService(mockRepo, mockGateway, mockReports)

	ctx := context.Background()
	mockReports.On("Get", ctx, reports.TypeFound, int64(7)).Return(&reports.Record{
		Type: reports.TypeFound,
		ID:   7,
	}, nil)
	mockRepo.On("CreatePayment", ctx, mock.AnythingOfType("*payments.Payment")).Return(nil)
	mockGateway.On("RequestToPay", ctx, mock.MatchedBy(func(in momo.RequestToPayInput) bool {
		return in.Amount == "2000" && in.PhoneNumber == "250788123456"
	})).Return(nil)

	p, err := service.RequestContactPayment(ctx, ContactPaymentRequest{
		ReportType:  reports.TypeFound,
		ReportID:    7,
		PhoneNumber: "250788123456",
		UserEmail:   "claimer@example.com",
	})

	assert.NoError(t, err)
	assert.Equal(t, momo.StatusPending, p.Status)
	assert.Equal(t, PurposeContact, p.Purpose)
	assert.Equal(t, 2000, p.Amount)
	assert.Equal(t, "RWF", p.Currency)
	assert.Equal(t, "claimer@example.com", *p.UserEmail)

	mockRepo.AssertExpectations(t)
	mockGateway.AssertExpectations(t)
}

func TestRequestContactPaymentReportMissing(t *testing.T) {
	mockRepo := new(MockRepository)
	mockGateway := new(MockGateway)
	mockReports := new(MockReportService)
	service := newTestService(mockRepo, mockGateway, mockReports)

	ctx := context.Background()
	mockReports.On("Get", ctx, reports.TypeLost, int64(99)).Return(nil, nil)

	_, err := service.RequestContactPayment(ctx, ContactPaymentRequest{
		ReportType:  reports.TypeLost,
		ReportID:    99,
		PhoneNumber: "250788123456",
	})

	assert.ErrorIs(t, err, ErrReportNotFound)
	mockGateway.AssertNotCalled(t, "RequestToPay", mock.Anything, mock.Anything)
}

func TestRequestContactPaymentGatewayFailure(t *testing.T) {
	mockRepo := new(MockRepository)
	mockGateway := new(MockGateway)
	mockReports := new(MockReportService)
	service := newTestService(mockRepo, mockGateway, mockReports)

	ctx := context.Background()
	mockReports.On("Get", ctx, reports.TypeFound, int64(7)).Return(&reports.Record{ID: 7}, nil)
	mockRepo.On("CreatePayment", ctx, mock.AnythingOfType("*payments.Payment")).Return(nil)
	mockGateway.On("RequestToPay", ctx, mock.Anything).Return(errors.New("provider down"))
	mockRepo.On("UpdateStatus", ctx, mock.AnythingOfType("uuid.UUID"),
		momo.StatusPending, momo.StatusFailed).Return(true, nil)

	_, err := service.RequestContactPayment(ctx, ContactPaymentRequest{
		ReportType:  reports.TypeFound,
		ReportID:    7,
		PhoneNumber: "250788123456",
	})

	assert.Error(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCheckStatusSuccessGrantsAccess(t *testing.T) {
	mockRepo := new(MockRepository)
	mockGateway := new(MockGateway)
	mockReports := new(MockReportService)
	service := newTestService(mockRepo, mockGateway, mockReports)

	ctx := context.Background()
	id := uuid.New()
	email := "claimer@example.com"
	mockRepo.On("GetPayment", ctx, id).Return(&Payment{
		ID:         id,
		Purpose:    PurposeContact,
		ReportType: "found",
		ReportID:   7,
		UserEmail:  &email,
		Status:     momo.StatusPending,
	}, nil)
	mockGateway.On("Status", ctx, id.String()).Return(&momo.StatusResult{Status: momo.StatusSuccessful}, nil)
	mockRepo.On("UpdateStatus", ctx, id, momo.StatusPending, momo.StatusSuccessful).Return(true, nil)
	mockRepo.On("GrantContactAccess", ctx, mock.MatchedBy(func(a *ContactAccess) bool {
		return a.PaymentID == id && a.ReportType == "found" && a.ReportID == 7 && a.UserEmail == email
	})).Return(nil)

	p, err := service.CheckStatus(ctx, id)

	assert.NoError(t, err)
	assert.True(t, p.Paid())
	mockRepo.AssertExpectations(t)
}

func TestCheckStatusTerminalSkipsProvider(t *testing.T) {
	mockRepo := new(MockRepository)
	mockGateway := new(MockGateway)
	mockReports := new(MockReportService)
	service := newTestService(mockRepo, mockGateway, mockReports)

	ctx := context.Background()
	id := uuid.New()
	mockRepo.On("GetPayment", ctx, id).Return(&Payment{ID: id, Status: momo.StatusFailed}, nil)

	p, err := service.CheckStatus(ctx, id)

	assert.NoError(t, err)
	assert.Equal(t, momo.StatusFailed, p.Status)
	mockGateway.AssertNotCalled(t, "Status", mock.Anything, mock.Anything)
}

func TestCheckStatusProviderUnavailableStaysPending(t *testing.T) {
	mockRepo := new(MockRepository)
	mockGateway := new(MockGateway)
	mockReports := new(MockReportService)
	service := newTestService(mockRepo, mockGateway, mockReports)

	ctx := context.Background()
	id := uuid.New()
	mockRepo.On("GetPayment", ctx, id).Return(&Payment{ID: id, Status: momo.StatusPending}, nil)
	mockGateway.On("Status", ctx, id.String()).Return(nil, errors.New("timeout"))

	p, err := service.CheckStatus(ctx, id)

	assert.NoError(t, err)
	assert.Equal(t, momo.StatusPending, p.Status)
	mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckStatusNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	mockGateway := new(MockGateway)
	mockReports := new(MockReportService)
	service := newTestService(mockRepo, mockGateway, mockReports)

	ctx := context.Background()
	id := uuid.New()
	mockRepo.On("GetPayment", ctx, id).Return(nil, nil)

	_, err := service.CheckStatus(ctx, id)

	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestUnlocked(t *testing.T) {
	mockRepo := new(MockRepository)
	mockGateway := new(MockGateway)
	mockReports := new(MockReportService)
	service := newTestService(mockRepo, mockGateway, mockReports)

	ctx := context.Background()
	phone := "0788123456"
	mockRepo.On("HasContactAccess", ctx, "found", int64(7), "claimer@example.com").Return(true, nil)
	mockReports.On("Contact", ctx, reports.TypeFound, int64(7)).Return(&reports.ContactInfo{
		ID:       3,
		FullName: "Jean Bosco",
		Phone:    phone,
	}, nil)

	contact, err := service.Unlocked(ctx, "found", 7, "claimer@example.com")

	assert.NoError(t, err)
	assert.Equal(t, "Jean Bosco", contact.FullName)
}

func TestUnlockedWithoutAccess(t *testing.T) {
	mockRepo := new(MockRepository)
	mockGateway := new(MockGateway)
	mockReports := new(MockReportService)
	service := newTestService(mockRepo, mockGateway, mockReports)

	ctx := context.Background()
	mockRepo.On("HasContactAccess", ctx, "found", int64(7), "someone@example.com").Return(false, nil)

	contact, err := service.Unlocked(ctx, "found", 7, "someone@example.com")

	assert.NoError(t, err)
	assert.Nil(t, contact)
	mockReports.AssertNotCalled(t, "Contact", mock.Anything, mock.Anything, mock.Anything)
}
