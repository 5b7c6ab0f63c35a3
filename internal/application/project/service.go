package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bitjob/backend/internal/domain"
	"github.com/bitjob/backend/internal/pkg/id"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldTags        = "tags"
	fieldBudget      = "budget"
	fieldDeadline    = "deadline"
	fieldStatus      = "status"
)

const deadlineLayout = "2006-01-02"

type Service interface {
	List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error)
	Get(ctx context.Context, projectSlug string) (*domain.Project, error)
	Create(ctx context.Context, ownerID string, req domain.CreateProjectRequest) (*domain.Project, error)
	Update(ctx context.Context, ownerID, projectSlug string, req domain.UpdateProjectRequest) (*domain.Project, error)
	Delete(ctx context.Context, ownerID, projectSlug string) error

	ListCategories(ctx context.Context, limit int32) ([]domain.Category, error)
	CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.Category, error)
	UpdateCategory(ctx context.Context, categorySlug string, req domain.UpdateCategoryRequest) (*domain.Category, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)

	UploadFile(ctx context.Context, userID, projectSlug, name, contentType string, size int64, r io.Reader) (*domain.ProjectFile, error)
	DownloadFile(ctx context.Context, fileID string) (*domain.ProjectFile, io.ReadCloser, error)
	DeleteFile(ctx context.Context, userID, fileID string) error
}

type projectStore interface {
	Put(ctx context.Context, p *domain.Project) error
	GetBySlug(ctx context.Context, slug string) (*domain.Project, error)
	Update(ctx context.Context, projectID string, updates map[string]interface{}) error
	Delete(ctx context.Context, projectID string) error
	Scan(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error)
}

type categoryStore interface {
	Put(ctx context.Context, c *domain.Category) error
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	Scan(ctx context.Context, limit int32) ([]domain.Category, error)
}

type tagStore interface {
	Put(ctx context.Context, t *domain.Tag) error
	GetByName(ctx context.Context, name string) (*domain.Tag, error)
	Scan(ctx context.Context) ([]domain.Tag, error)
}

type fileStore interface {
	Put(ctx context.Context, f *domain.ProjectFile) error
	Get(ctx context.Context, fileID string) (*domain.ProjectFile, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.ProjectFile, error)
	Delete(ctx context.Context, fileID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	projects   projectStore
	categories categoryStore
	tags       tagStore
	files      fileStore
	objects    objectStore
}

type ServiceDeps struct {
	ProjectRepo  projectStore
	CategoryRepo categoryStore
	TagRepo      tagStore
	FileRepo     fileStore
	ObjectStore  objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		projects:   deps.ProjectRepo,
		categories: deps.CategoryRepo,
		tags:       deps.TagRepo,
		files:      deps.FileRepo,
		objects:    deps.ObjectStore,
	}
}

func (s *service) List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	return s.projects.Scan(ctx, filter)
}

func (s *service) Get(ctx context.Context, projectSlug string) (*domain.Project, error) {
	p, err := s.projects.GetBySlug(ctx, projectSlug)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ListByProject(ctx, p.ProjectID)
	if err != nil {
		return nil, err
	}
	p.Files = files
	return p, nil
}

func (s *service) Create(ctx context.Context, ownerID string, req domain.CreateProjectRequest) (*domain.Project, error) {
	if _, err := s.categories.GetBySlug(ctx, req.Category); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown category %q: %w", req.Category, domain.ErrBadRequest)
		}
		return nil, err
	}
	budget, err := parseBudget(req.Budget)
	if err != nil {
		return nil, err
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return nil, err
	}
	status := domain.ProjectStatusOpen
	if req.Status != nil {
		if !domain.ValidProjectStatus(*req.Status) {
			return nil, fmt.Errorf("invalid status %q: %w", *req.Status, domain.ErrBadRequest)
		}
		status = *req.Status
	}
	tags, err := s.ensureTags(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	projectSlug, err := s.uniqueSlug(ctx, req.Title)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domain.Project{
		ProjectID:    id.New(),
		Title:        req.Title,
		Description:  req.Description,
		CategorySlug: req.Category,
		Tags:         tags,
		OwnerID:      ownerID,
		Budget:       budget,
		Deadline:     deadline,
		Status:       status,
		Slug:         projectSlug,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.projects.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, ownerID, projectSlug string, req domain.UpdateProjectRequest) (*domain.Project, error) {
	p, err := s.owned(ctx, ownerID, projectSlug)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.Tags != nil {
		tags, err := s.ensureTags(ctx, *req.Tags)
		if err != nil {
			return nil, err
		}
		updates[fieldTags] = tags
	}
	if req.Budget != nil {
		budget, err := parseBudget(req.Budget)
		if err != nil {
			return nil, err
		}
		updates[fieldBudget] = budget
	}
	if req.Deadline != nil {
		deadline, err := parseDeadline(req.Deadline)
		if err != nil {
			return nil, err
		}
		updates[fieldDeadline] = deadline
	}
	if req.Status != nil {
		if !domain.ValidProjectStatus(*req.Status) {
			return nil, fmt.Errorf("invalid status %q: %w", *req.Status, domain.ErrBadRequest)
		}
		updates[fieldStatus] = *req.Status
	}
	if len(updates) == 0 {
		return p, nil
	}
	if err := s.projects.Update(ctx, p.ProjectID, updates); err != nil {
		return nil, err
	}
	return s.projects.GetBySlug(ctx, projectSlug)
}

func (s *service) Delete(ctx context.Context, ownerID, projectSlug string) error {
	p, err := s.owned(ctx, ownerID, projectSlug)
	if err != nil {
		return err
	}
	files, err := s.files.ListByProject(ctx, p.ProjectID)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := s.objects.Delete(ctx, f.Object); err != nil {
			return err
		}
		if err := s.files.Delete(ctx, f.FileID); err != nil {
			return err
		}
	}
	return s.projects.Delete(ctx, p.ProjectID)
}

func (s *service) ListCategories(ctx context.Context, limit int32) ([]domain.Category, error) {
	return s.categories.Scan(ctx, limit)
}

func (s *service) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.Category, error) {
	categorySlug := slug.Make(req.Name)
	if _, err := s.categories.GetBySlug(ctx, categorySlug); err == nil {
		return nil, fmt.Errorf("category already exists: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	c := &domain.Category{
		CategoryID:  id.New(),
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		Slug:        categorySlug,
	}
	if err := s.categories.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) UpdateCategory(ctx context.Context, categorySlug string, req domain.UpdateCategoryRequest) (*domain.Category, error) {
	c, err := s.categories.GetBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Image != nil {
		c.Image = req.Image
	}
	if err := s.categories.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return s.tags.Scan(ctx)
}

func (s *service) UploadFile(ctx context.Context, userID, projectSlug, name, contentType string, size int64, r io.Reader) (*domain.ProjectFile, error) {
	p, err := s.owned(ctx, userID, projectSlug)
	if err != nil {
		return nil, err
	}
	fileID := id.New()
	key := fmt.Sprintf("projects/%s/%s/%s", p.ProjectID, fileID, name)
	if _, err := s.objects.Upload(ctx, key, r, contentType); err != nil {
		return nil, err
	}
	f := &domain.ProjectFile{
		FileID:      fileID,
		ProjectID:   p.ProjectID,
		Object:      key,
		Name:        name,
		Size:        size,
		ContentType: contentType,
		UploadedBy:  userID,
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.files.Put(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) DownloadFile(ctx context.Context, fileID string) (*domain.ProjectFile, io.ReadCloser, error) {
	f, err := s.files.Get(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.objects.Download(ctx, f.Object)
	if err != nil {
		return nil, nil, err
	}
	return f, body, nil
}

func (s *service) DeleteFile(ctx context.Context, userID, fileID string) error {
	f, err := s.files.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if f.UploadedBy != userID {
		return domain.ErrNotFound
	}
	if err := s.objects.Delete(ctx, f.Object); err != nil {
		return err
	}
	return s.files.Delete(ctx, fileID)
}

// owned loads a project by slug and hides it from non-owners. A caller who
// does not own the project sees the same not-found as one that never existed.
func (s *service) owned(ctx context.Context, ownerID, projectSlug string) (*domain.Project, error) {
	p, err := s.projects.GetBySlug(ctx, projectSlug)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// ensureTags normalizes tag names and creates any that do not exist yet.
func (s *service) ensureTags(ctx context.Context, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, err := s.tags.GetByName(ctx, name); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			if err := s.tags.Put(ctx, &domain.Tag{TagID: id.New(), Name: name}); err != nil {
				return nil, err
			}
		}
		out = append(out, name)
	}
	return out, nil
}

// uniqueSlug derives a URL slug from the title, suffixing when taken.
func (s *service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", fmt.Errorf("title yields an empty slug: %w", domain.ErrBadRequest)
	}
	candidate := base
	for i := 0; ; i++ {
		_, err := s.projects.GetBySlug(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s-%s", base, strings.ToLower(id.New()[20:]))
		if i > 4 {
			return "", fmt.Errorf("could not allocate slug for %q", title)
		}
	}
}

func parseBudget(raw *string) (*decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, fmt.Errorf("budget must be a decimal number: %w", domain.ErrBadRequest)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("budget must not be negative: %w", domain.ErrBadRequest)
	}
	return &d, nil
}

func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(deadlineLayout, *raw)
	if err != nil {
		return nil, fmt.Errorf("deadline must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
	}
	return &t, nil
}
