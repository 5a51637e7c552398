package blobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/myvaultapp/myvault/internal/common"
)

type memObject struct {
	info    ObjectInfo
	content []byte
}

// MemoryStore is an in-memory Store for tests. Error fields inject
// failures; FailWriteName fails WriteContent for the object with that name.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]*memObject
	parents map[string]string

	ListErr   error
	CreateErr error
	ReadErr   error
	WriteErr  error
	DeleteErr error
	MetaErr   error

	FailWriteName string

	// ListReversed flips List result order; the resolver must not depend
	// on which duplicate the store happens to return first.
	ListReversed bool

	// order preserves insertion order so List output is deterministic.
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*memObject),
		parents: make(map[string]string),
	}
}

func (m *MemoryStore) List(_ context.Context, q Query) ([]ObjectInfo, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var infos []ObjectInfo
	for _, id := range m.order {
		obj, ok := m.objects[id]
		if !ok || obj.info.Trashed {
			continue
		}
		if !m.match(q, obj) {
			continue
		}
		infos = append(infos, obj.info)
	}
	if m.ListReversed {
		for i, j := 0, len(infos)-1; i < j; i, j = i+1, j-1 {
			infos[i], infos[j] = infos[j], infos[i]
		}
	}
	return infos, nil
}

func (m *MemoryStore) match(q Query, obj *memObject) bool {
	if len(q.Names) > 0 {
		found := false
		for _, n := range q.Names {
			if obj.info.Name == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.ParentID != "" && m.parents[obj.info.ID] != q.ParentID {
		return false
	}
	if q.MimeType != "" && obj.info.MimeType != q.MimeType {
		return false
	}
	return true
}

func (m *MemoryStore) Create(_ context.Context, name, parentID, mimeType string) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.objects[id] = &memObject{
		info: ObjectInfo{ID: id, Name: name, MimeType: mimeType},
	}
	m.parents[id] = parentID
	m.order = append(m.order, id)
	return id, nil
}

func (m *MemoryStore) WriteContent(_ context.Context, id string, data []byte, contentType string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[id]
	if !ok {
		return fmt.Errorf("%w: object %s", common.ErrNotFound, id)
	}
	if m.FailWriteName != "" && obj.info.Name == m.FailWriteName {
		return fmt.Errorf("%w: write rejected", common.ErrRemoteUnavailable)
	}
	obj.content = make([]byte, len(data))
	copy(obj.content, data)
	obj.info.Size = int64(len(data))
	if contentType != "" {
		obj.info.MimeType = contentType
	}
	return nil
}

func (m *MemoryStore) ReadContent(_ context.Context, id string) ([]byte, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: object %s", common.ErrNotFound, id)
	}
	out := make([]byte, len(obj.content))
	copy(out, obj.content)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, id)
	delete(m.parents, id)
	return nil
}

func (m *MemoryStore) GetMeta(_ context.Context, id string) (*ObjectInfo, error) {
	if m.MetaErr != nil {
		return nil, m.MetaErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: object %s", common.ErrNotFound, id)
	}
	info := obj.info
	return &info, nil
}

// SetContent seeds object content directly, bypassing error injection.
func (m *MemoryStore) SetContent(id string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if obj, ok := m.objects[id]; ok {
		obj.content = make([]byte, len(data))
		copy(obj.content, data)
		obj.info.Size = int64(len(data))
	}
}

// Content returns a copy of the stored content, bypassing error injection.
func (m *MemoryStore) Content(id string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[id]
	if !ok {
		return nil
	}
	out := make([]byte, len(obj.content))
	copy(out, obj.content)
	return out
}
