package session

import (
	"errors"
	"net/http"
	"sync"
	"time"
)

// Store - хранилище учетных данных сессии на стороне клиента (cookie).
// Terminate и Issue зависят только от этого интерфейса.
type Store interface {
	Get(name string) (string, bool, error)
	Set(name, value string, maxAge time.Duration) error
	Delete(name string) error
}

type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// CookieStore читает cookie из запроса и пишет Set-Cookie в ответ.
type CookieStore struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStore {
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	return &CookieStore{w: w, r: r, opts: opts}
}

func (s *CookieStore) Get(name string) (string, bool, error) {
	c, err := s.r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", false, nil
		}
		return "", false, err
	}
	return c.Value, true, nil
}

func (s *CookieStore) Set(name, value string, maxAge time.Duration) error {
	cookie := s.cookie(name, value)
	cookie.MaxAge = int(maxAge.Seconds())
	cookie.Expires = time.Now().Add(maxAge)
	if err := cookie.Valid(); err != nil {
		return err
	}
	http.SetCookie(s.w, cookie)
	return nil
}

// Delete всегда отправляет истекшую cookie, даже если в запросе ее не было.
func (s *CookieStore) Delete(name string) error {
	cookie := s.cookie(name, "")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	if err := cookie.Valid(); err != nil {
		return err
	}
	http.SetCookie(s.w, cookie)
	return nil
}

func (s *CookieStore) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.opts.Path,
		Domain:   s.opts.Domain,
		Secure:   s.opts.Secure,
		HttpOnly: !ScriptReadable(name),
		SameSite: s.opts.SameSite,
	}
}

// MemoryStore - Store в памяти процесса для тестов.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok, nil
}

func (s *MemoryStore) Set(name, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
