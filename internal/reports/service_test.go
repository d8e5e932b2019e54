package reports

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListDocumentTypes(ctx context.Context) ([]DocumentType, error) {
	args := m.Called(ctx)
	return args.Get(0).([]DocumentType), args.Error(1)
}

func (m *MockRepository) GetDocumentType(ctx context.Context, id int64) (*DocumentType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DocumentType), args.Error(1)
}

func (m *MockRepository) GetOrCreateContact(ctx context.Context, contact *ContactInfo) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockRepository) GetContact(ctx context.Context, id int64) (*ContactInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ContactInfo), args.Error(1)
}

func (m *MockRepository) CreateLost(ctx context.Context, doc *LostDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository) GetLost(ctx context.Context, id int64) (*LostDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LostDocument), args.Error(1)
}

func (m *MockRepository) ListLost(ctx context.Context, filter SearchFilter) ([]LostDocument, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]LostDocument), args.Error(1)
}

func (m *MockRepository) UpdateLost(ctx context.Context, doc *LostDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository) CreateFound(ctx context.Context, doc *FoundDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository) GetFound(ctx context.Context, id int64) (*FoundDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FoundDocument), args.Error(1)
}

func (m *MockRepository) ListFound(ctx context.Context, filter SearchFilter) ([]FoundDocument, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]FoundDocument), args.Error(1)
}

func (m *MockRepository) UpdateFound(ctx context.Context, doc *FoundDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository) DeactivateLost(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) DeactivateFound(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ActivatePremium(ctx context.Context, lostID int64, paymentID uuid.UUID, expiresAt time.Time) error {
	args := m.Called(ctx, lostID, paymentID, expiresAt)
	return args.Error(0)
}

func (m *MockRepository) ExpirePremium(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) FindMatchingLost(ctx context.Context, found *FoundDocument) ([]LostDocument, error) {
	args := m.Called(ctx, found)
	return args.Get(0).([]LostDocument), args.Error(1)
}

func (m *MockRepository) FindMatchingFound(ctx context.Context, lost *LostDocument) ([]FoundDocument, error) {
	args := m.Called(ctx, lost)
	return args.Get(0).([]FoundDocument), args.Error(1)
}

func (m *MockRepository) MatchNotified(ctx context.Context, lostID, foundID int64) (bool, error) {
	args := m.Called(ctx, lostID, foundID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) RecordMatchNotification(ctx context.Context, lostID, foundID int64) error {
	args := m.Called(ctx, lostID, foundID)
	return args.Error(0)
}

// memoryStore is an in-memory object store for tests.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memoryStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return io.NopCloser(bytes.NewReader(s.objects[key])), nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

func testJPEG(t *testing.T) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestCreateLostMasksResponse(t *testing.T) {
	mockRepo := new(MockRepository)
	store := newMemoryStore()
	service := NewService(mockRepo, store, "/media", zap.NewNop())

	ctx := context.Background()
	mockRepo.On("GetDocumentType", ctx, int64(1)).Return(&DocumentType{ID: 1, Name: "Passport"}, nil)
	mockRepo.On("GetOrCreateContact", ctx, mock.AnythingOfType("*reports.ContactInfo")).Return(nil)
	mockRepo.On("CreateLost", ctx, mock.AnythingOfType("*reports.LostDocument")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*LostDocument).ID = 5
		}).Return(nil)

	pub, err := service.CreateLost(ctx, CreateLostRequest{
		OwnerName:      "Alice Uwase",
		DocumentTypeID: 1,
		DocumentNumber: "A1234567",
		Contact:        ContactInfo{FullName: "Alice Uwase", Phone: "0788123456"},
	})

	assert.NoError(t, err)
	assert.EqualValues(t, 5, pub.ID)
	assert.Equal(t, "A***e U.", *pub.OwnerName)
	assert.Equal(t, "A1****67", *pub.DocumentNumber)
	assert.Nil(t, pub.Image)
	mockRepo.AssertExpectations(t)
}

func TestCreateFoundRequiresImage(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, newMemoryStore(), "/media", zap.NewNop())

	ctx := context.Background()
	mockRepo.On("GetDocumentType", ctx, int64(1)).Return(&DocumentType{ID: 1, Name: "Passport"}, nil)

	_, err := service.CreateFound(ctx, CreateFoundRequest{
		FoundName:      "Alice Uwase",
		DocumentTypeID: 1,
		Contact:        ContactInfo{FullName: "Jean Bosco", Phone: "0788000000"},
	})

	assert.ErrorIs(t, err, ErrImageRequired)
}

func TestCreateFoundStoresBlurredCopy(t *testing.T) {
	mockRepo := new(MockRepository)
	store := newMemoryStore()
	service := NewService(mockRepo, store, "/media", zap.NewNop())

	ctx := context.Background()
	mockRepo.On("GetDocumentType", ctx, int64(1)).Return(&DocumentType{ID: 1, Name: "Passport"}, nil)
	mockRepo.On("GetOrCreateContact", ctx, mock.AnythingOfType("*reports.ContactInfo")).Return(nil)
	mockRepo.On("CreateFound", ctx, mock.AnythingOfType("*reports.FoundDocument")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*FoundDocument).ID = 20
		}).Return(nil)

	pub, err := service.CreateFound(ctx, CreateFoundRequest{
		FoundName:      "Alice Uwase",
		DocumentTypeID: 1,
		Image:          testJPEG(t),
		ImageName:      "photo.jpg",
		Contact:        ContactInfo{FullName: "Jean Bosco", Phone: "0788000000"},
	})

	assert.NoError(t, err)

	keys := store.keys()
	assert.Len(t, keys, 2)
	var blurred, original string
	for _, k := range keys {
		if strings.Contains(k, "/blurred/") {
			blurred = k
		} else {
			original = k
		}
	}
	assert.NotEmpty(t, blurred)
	assert.NotEmpty(t, original)

	// the public listing only ever references the blurred rendition
	assert.Contains(t, *pub.Image, "/blurred/")
}

func TestSearchLostPremiumFlag(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, newMemoryStore(), "/media", zap.NewNop())

	ctx := context.Background()
	future := time.Now().Add(24 * time.Hour)
	docNumber := "A1234567"
	mockRepo.On("ListLost", ctx, mock.AnythingOfType("reports.SearchFilter")).Return([]LostDocument{
		{ID: 1, OwnerName: "Alice Uwase", DocumentTypeID: 1, DocumentNumber: &docNumber,
			IsPremium: true, PremiumExpiresAt: &future},
		{ID: 2, OwnerName: "Bob Mugisha", DocumentTypeID: 1},
	}, nil)
	mockRepo.On("ListDocumentTypes", ctx).Return([]DocumentType{{ID: 1, Name: "Passport"}}, nil)

	out, err := service.SearchLost(ctx, SearchFilter{})

	assert.NoError(t, err)
	assert.Len(t, out, 2)
	assert.True(t, out[0].IsPremium)
	assert.False(t, out[1].IsPremium)
	assert.Equal(t, "A1****67", *out[0].DocumentNumber)
}

func TestFullKeepsContactLocked(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, newMemoryStore(), "/media", zap.NewNop())

	ctx := context.Background()
	docNumber := "A1234567"
	mockRepo.On("GetLost", ctx, int64(5)).Return(&LostDocument{
		ID: 5, OwnerName: "Alice Uwase", DocumentTypeID: 1, DocumentNumber: &docNumber, ContactID: 3,
	}, nil)
	mockRepo.On("GetDocumentType", ctx, int64(1)).Return(&DocumentType{ID: 1, Name: "Passport"}, nil)

	full, err := service.Full(ctx, TypeLost, 5)

	assert.NoError(t, err)
	assert.Equal(t, "Alice Uwase", *full.OwnerName)
	assert.Equal(t, "A1234567", *full.DocumentNumber)
	assert.True(t, full.ContactLocked)
	assert.Nil(t, full.Contact)
}

func TestMatchHookFiresOnCreate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, newMemoryStore(), "/media", zap.NewNop())

	fired := make(chan int64, 1)
	service.SetMatchHook(func(reportType ReportType, id int64) {
		if reportType == TypeLost {
			fired <- id
		}
	})

	ctx := context.Background()
	mockRepo.On("GetDocumentType", ctx, int64(1)).Return(&DocumentType{ID: 1, Name: "Passport"}, nil)
	mockRepo.On("GetOrCreateContact", ctx, mock.AnythingOfType("*reports.ContactInfo")).Return(nil)
	mockRepo.On("CreateLost", ctx, mock.AnythingOfType("*reports.LostDocument")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*LostDocument).ID = 5
		}).Return(nil)

	_, err := service.CreateLost(ctx, CreateLostRequest{
		OwnerName:      "Alice Uwase",
		DocumentTypeID: 1,
		Contact:        ContactInfo{FullName: "Alice Uwase", Phone: "0788123456"},
	})
	assert.NoError(t, err)

	select {
	case id := <-fired:
		assert.EqualValues(t, 5, id)
	case <-time.After(2 * time.Second):
		t.Fatal("match hook did not fire")
	}
}

func TestGetMissingReport(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, newMemoryStore(), "/media", zap.NewNop())

	ctx := context.Background()
	mockRepo.On("GetLost", ctx, int64(99)).Return(nil, nil)

	rec, err := service.Get(ctx, TypeLost, 99)

	assert.NoError(t, err)
	assert.Nil(t, rec)
}
