package services

import (
	"testing"
	"time"
)

type stubAuthStore struct {
	users map[string]*User
}

func newStubAuthStore() *stubAuthStore {
	return &stubAuthStore{users: map[string]*User{}}
}

func (s *stubAuthStore) FindUserByEmail(email string) (*User, error) {
	if u, ok := s.users[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (s *stubAuthStore) AddUser(u *User) error {
	copy := *u
	s.users[u.Email] = &copy
	return nil
}

func testSigner(uid, email string, ttl time.Duration) (string, error) {
	return "token-for-" + uid, nil
}

func TestRegisterAndLogin(t *testing.T) {
	store := newStubAuthStore()
	svc := NewAuthService(store, testSigner)

	res, err := svc.Register("sam@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Token == "" || res.UserID == "" {
		t.Errorf("result = %+v", res)
	}

	login, err := svc.Login("sam@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.UserID != res.UserID {
		t.Errorf("login user = %q, want %q", login.UserID, res.UserID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newStubAuthStore(), testSigner)
	if _, err := svc.Register("dup@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register("dup@example.com", "pw2")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorConflict {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	store := newStubAuthStore()
	svc := NewAuthService(store, testSigner)
	if _, err := svc.Register("a@example.com", "right"); err != nil {
		t.Fatal(err)
	}
	for _, c := range [][2]string{{"a@example.com", "wrong"}, {"missing@example.com", "right"}} {
		_, err := svc.Login(c[0], c[1])
		se, ok := AsServiceError(err)
		if !ok || se.Code != ErrorUnauthorized {
			t.Errorf("Login(%q): err = %v, want unauthorized", c[0], err)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newStubAuthStore(), testSigner)
	for _, c := range [][2]string{{"", "pw"}, {"a@example.com", ""}, {"  ", "  "}} {
		if _, err := svc.Register(c[0], c[1]); err == nil {
			t.Errorf("Register(%q, %q) accepted", c[0], c[1])
		}
	}
}
