package services

import (
	"strings"
	"time"
)

// Company is an entry in the company directory. Responses reference
// companies by id as an opaque token; the directory is read-only from
// the assessment core's perspective.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CompanyStore interface {
	AddCompany(c *Company) error
	GetCompany(id string) (*Company, error)
	FindCompanyByName(name string) (*Company, error)
	ListCompanies() ([]*Company, error)
}

type DirectoryService struct {
	store CompanyStore
	now   func() time.Time
	idGen func(prefix string, n int) string
}

func NewDirectoryService(store CompanyStore) *DirectoryService {
	return &DirectoryService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func(prefix string, n int) string { return prefix + shortID(n) },
	}
}

func (s *DirectoryService) CreateCompany(name string) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewInvalidError("name required")
	}
	existing, err := s.store.FindCompanyByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("company exists")
	}
	c := &Company{ID: s.idGen("c", 10), Name: name, CreatedAt: s.now()}
	if err := s.store.AddCompany(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *DirectoryService) GetCompany(id string) (*Company, error) {
	c, err := s.store.GetCompany(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, NewNotFoundError("company not found")
	}
	return c, nil
}

func (s *DirectoryService) ListCompanies() ([]*Company, error) {
	return s.store.ListCompanies()
}
