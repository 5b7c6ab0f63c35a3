package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bitjob/backend/internal/domain"
)

type mockProjectSvc struct{ mock.Mock }

func (m *mockProjectSvc) List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	args := m.Called(ctx, filter)
	if ps, _ := args.Get(0).([]domain.Project); ps != nil {
		return ps, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProjectSvc) Get(ctx context.Context, slug string) (*domain.Project, error) {
	args := m.Called(ctx, slug)
	if p, _ := args.Get(0).(*domain.Project); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProjectSvc) Create(ctx context.Context, ownerID string, req domain.CreateProjectRequest) (*domain.Project, error) {
	args := m.Called(ctx, ownerID, req)
	if p, _ := args.Get(0).(*domain.Project); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProjectSvc) Update(ctx context.Context, ownerID, slug string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	args := m.Called(ctx, ownerID, slug, req)
	if p, _ := args.Get(0).(*domain.Project); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProjectSvc) Delete(ctx context.Context, ownerID, slug string) error {
	return m.Called(ctx, ownerID, slug).Error(0)
}
func (m *mockProjectSvc) ListCategories(ctx context.Context, limit int32) ([]domain.Category, error) {
	args := m.Called(ctx, limit)
	if cs, _ := args.Get(0).([]domain.Category); cs != nil {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProjectSvc) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.Category, error) {
	args := m.Called(ctx, req)
	if c, _ := args.Get(0).(*domain.Category); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProjectSvc) UpdateCategory(ctx context.Context, categorySlug string, req domain.UpdateCategoryRequest) (*domain.Category, error) {
	args := m.Called(ctx, categorySlug, req)
	if c, _ := args.Get(0).(*domain.Category); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProjectSvc) ListTags(ctx context.Context) ([]domain.Tag, error) {
	args := m.Called(ctx)
	if ts, _ := args.Get(0).([]domain.Tag); ts != nil {
		return ts, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProjectSvc) UploadFile(ctx context.Context, userID, slug, name, contentType string, size int64, r io.Reader) (*domain.ProjectFile, error) {
	args := m.Called(ctx, userID, slug, name, contentType, size, r)
	if f, _ := args.Get(0).(*domain.ProjectFile); f != nil {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProjectSvc) DownloadFile(ctx context.Context, fileID string) (*domain.ProjectFile, io.ReadCloser, error) {
	args := m.Called(ctx, fileID)
	if f, _ := args.Get(0).(*domain.ProjectFile); f != nil {
		return f, args.Get(1).(io.ReadCloser), args.Error(2)
	}
	return nil, nil, args.Error(2)
}
func (m *mockProjectSvc) DeleteFile(ctx context.Context, userID, fileID string) error {
	return m.Called(ctx, userID, fileID).Error(0)
}

// --- tests ---

func TestListProjects_FilterFromQuery(t *testing.T) {
	svc := &mockProjectSvc{}
	svc.On("List", mock.Anything, mock.MatchedBy(func(f domain.ProjectFilter) bool {
		return f.CategorySlug == "design" &&
			f.Status == domain.ProjectStatusOpen &&
			f.MinBudget != nil && f.MinBudget.String() == "100" &&
			f.DeadlineBefore != nil
	})).Return([]domain.Project{}, nil)
	h := NewProjectHandler(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/projects?category=design&status=open&min_budget=100&deadline_before=2027-01-01", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestListProjects_BadFilterValues(t *testing.T) {
	h := NewProjectHandler(&mockProjectSvc{})

	for _, q := range []string{
		"status=paused",
		"min_budget=lots",
		"deadline_after=01-01-2027",
	} {
		req := httptest.NewRequest(http.MethodGet, "/projects?"+q, nil)
		rr := httptest.NewRecorder()
		h.List(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "query %q", q)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	svc := &mockProjectSvc{}
	svc.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	h := NewProjectHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/projects/nope", nil)
	rr := httptest.NewRecorder()
	h.Get(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateProject_RequiresAuth(t *testing.T) {
	h := NewProjectHandler(&mockProjectSvc{})

	// No claims in context.
	req := httptest.NewRequest(http.MethodPost, "/projects", nil)
	rr := httptest.NewRecorder()
	h.Create(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDownloadFile_SetsHeaders(t *testing.T) {
	svc := &mockProjectSvc{}
	svc.On("DownloadFile", mock.Anything, mock.Anything).
		Return(&domain.ProjectFile{Name: "spec.pdf", ContentType: "application/pdf"},
			io.NopCloser(strings.NewReader("abc")), nil)
	h := NewProjectHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/projects/files/f1", nil)
	rr := httptest.NewRecorder()
	h.DownloadFile(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "spec.pdf")
	require.Equal(t, "abc", rr.Body.String())
}
