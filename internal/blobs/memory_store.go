package blobs

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
)

type object struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in memory for tests and embedded use.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[Bucket]map[string]object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: map[Bucket]map[string]object{
		Staging:    {},
		Production: {},
	}}
}

func (s *MemoryStore) Put(_ context.Context, bucket Bucket, name, contentType string, r io.Reader) error {
	if err := checkObject(bucket, name); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[bucket][name] = object{data: data, contentType: contentType}
	return nil
}

func (s *MemoryStore) Open(_ context.Context, bucket Bucket, name string) (io.ReadCloser, string, error) {
	obj, err := s.get(bucket, name)
	if err != nil {
		return nil, "", err
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

func (s *MemoryStore) Copy(_ context.Context, from, to Bucket, name string) error {
	if err := checkObject(to, name); err != nil {
		return err
	}
	obj, err := s.get(from, name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[to][name] = object{data: append([]byte(nil), obj.data...), contentType: obj.contentType}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, bucket Bucket, name string) error {
	if err := checkObject(bucket, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket][name]; !ok {
		return &NotFoundError{Bucket: bucket, Name: name}
	}
	delete(s.buckets[bucket], name)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, bucket Bucket, name string) (bool, error) {
	if err := checkObject(bucket, name); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[bucket][name]
	return ok, nil
}

// Names lists the objects in bucket, sorted.
func (s *MemoryStore) Names(bucket Bucket) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.buckets[bucket]))
	for name := range s.buckets[bucket] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *MemoryStore) get(bucket Bucket, name string) (object, error) {
	if err := checkObject(bucket, name); err != nil {
		return object{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.buckets[bucket][name]
	if !ok {
		return object{}, &NotFoundError{Bucket: bucket, Name: name}
	}
	return obj, nil
}
