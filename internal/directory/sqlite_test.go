package directory

import (
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kestrelcrm/kestrel/internal/services"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "directory.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCompanyRoundTrip(t *testing.T) {
	s := openTestStore(t)
	want := &services.Company{
		ID:        "c1",
		Name:      "Acme Corp",
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.AddCompany(want); err != nil {
		t.Fatalf("AddCompany: %v", err)
	}

	got, err := s.GetCompany("c1")
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if got == nil || got.Name != want.Name || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("got %+v", got)
	}

	byName, err := s.FindCompanyByName("Acme Corp")
	if err != nil {
		t.Fatalf("FindCompanyByName: %v", err)
	}
	if byName == nil || byName.ID != "c1" {
		t.Errorf("byName = %+v", byName)
	}
}

func TestGetCompanyMissing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetCompany("nope")
	if err != nil || got != nil {
		t.Errorf("got %+v, %v; want nil, nil", got, err)
	}
}

func TestListCompaniesOrderedByName(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()
	for i, name := range []string{"Zeta", "Alpha", "Mid"} {
		c := &services.Company{ID: "c" + name, Name: name, CreatedAt: now.Add(time.Duration(i) * time.Second)}
		if err := s.AddCompany(c); err != nil {
			t.Fatalf("AddCompany %s: %v", name, err)
		}
	}
	got, err := s.ListCompanies()
	if err != nil {
		t.Fatalf("ListCompanies: %v", err)
	}
	if len(got) != 3 || got[0].Name != "Alpha" || got[1].Name != "Mid" || got[2].Name != "Zeta" {
		t.Errorf("order = %+v", got)
	}
}

func TestDuplicateCompanyNameRejected(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()
	if err := s.AddCompany(&services.Company{ID: "c1", Name: "Same", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCompany(&services.Company{ID: "c2", Name: "Same", CreatedAt: now}); err == nil {
		t.Error("duplicate name accepted")
	}
}

func TestUserRoundTrip(t *testing.T) {
	s := openTestStore(t)
	want := &services.User{
		ID:        "u1",
		Email:     "sam@example.com",
		PassHash:  []byte("$2a$10$fakehash"),
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.AddUser(want); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	got, err := s.FindUserByEmail("sam@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if got == nil || got.ID != "u1" || string(got.PassHash) != string(want.PassHash) {
		t.Errorf("got %+v", got)
	}

	missing, err := s.FindUserByEmail("nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("missing user: got %+v, %v; want nil, nil", missing, err)
	}
}
