package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"storefront-be/internal/order"
	"storefront-be/internal/user"
)

// Keys under which the session is persisted.
const (
	KeyUserInfo        = "userInfo"
	KeyCartItems       = "cartItems"
	KeyShippingAddress = "shippingAddress"
	KeyPaymentMethod   = "paymentMethod"
)

// Storage is a small key/value store of JSON documents.
type Storage interface {
	Load(key string, v any) (bool, error)
	Save(key string, v any) error
	Remove(key string) error
}

// FileStorage keeps every key in one JSON object on disk.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) read() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}

	doc := map[string]json.RawMessage{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("session file %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileStorage) write(doc map[string]json.RawMessage) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStorage) Load(key string, v any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return false, err
	}
	raw, ok := doc[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (f *FileStorage) Save(key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	doc[key] = raw
	return f.write(doc)
}

func (f *FileStorage) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.write(doc)
}

type MemoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string][]byte{}}
}

func (m *MemoryStorage) Load(key string, v any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (m *MemoryStorage) Save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Session is the client's persisted state: who is signed in and what is in
// the cart.
type Session struct {
	storage Storage
}

func NewSession(storage Storage) *Session {
	return &Session{storage: storage}
}

// UserInfo returns the stored identity, or nil when signed out.
func (s *Session) UserInfo() (*user.AuthResult, error) {
	var info user.AuthResult
	ok, err := s.storage.Load(KeyUserInfo, &info)
	if err != nil || !ok {
		return nil, err
	}
	return &info, nil
}

func (s *Session) SaveUserInfo(info *user.AuthResult) error {
	return s.storage.Save(KeyUserInfo, info)
}

func (s *Session) ClearUserInfo() error {
	return s.storage.Remove(KeyUserInfo)
}

// Cart restores the persisted cart. Missing keys leave their zero values.
func (s *Session) Cart() (Cart, error) {
	var cart Cart
	if _, err := s.storage.Load(KeyCartItems, &cart.Items); err != nil {
		return Cart{}, err
	}
	if _, err := s.storage.Load(KeyShippingAddress, &cart.ShippingAddress); err != nil {
		return Cart{}, err
	}
	if _, err := s.storage.Load(KeyPaymentMethod, &cart.PaymentMethod); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

func (s *Session) SaveCartItems(items []CartItem) error {
	return s.storage.Save(KeyCartItems, items)
}

func (s *Session) SaveShippingAddress(addr order.ShippingAddress) error {
	return s.storage.Save(KeyShippingAddress, addr)
}

func (s *Session) SavePaymentMethod(method string) error {
	return s.storage.Save(KeyPaymentMethod, method)
}

func (s *Session) ClearCartItems() error {
	return s.storage.Remove(KeyCartItems)
}
