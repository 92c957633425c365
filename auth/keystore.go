package auth

import (
	"context"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// KeyStore persists the identity -> CURVE public key allowlist that
// CurveBackend consults for authorization once ZeroMQ's native CURVE
// mechanism has already verified the key exchange.
type KeyStore interface {
	Put(identity string, publicKey [32]byte) error
	Get(identity string) ([32]byte, bool, error)
	Delete(identity string) error
}

// MemoryKeyStore is an in-process KeyStore backed by a mutex-guarded map.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string][32]byte
}

// NewMemoryKeyStore constructs an empty MemoryKeyStore.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string][32]byte)}
}

func (s *MemoryKeyStore) Put(identity string, publicKey [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[identity] = publicKey
	return nil
}

func (s *MemoryKeyStore) Get(identity string) ([32]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[identity]
	return key, ok, nil
}

func (s *MemoryKeyStore) Delete(identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, identity)
	return nil
}

// EtcdKeyStore persists the identity -> public key allowlist in etcd, so a
// fleet of zrpc endpoints behind the same CURVE server can share one
// authorization list instead of each tracking its own. Keys live under a
// fixed prefix with no lease attached: unlike service discovery, an
// authorization entry's validity is not tied to a process's liveness.
type EtcdKeyStore struct {
	client *clientv3.Client
}

const etcdKeyPrefix = "/zrpc/curve-keys/"

// NewEtcdKeyStore creates a KeyStore connected to the given etcd endpoints.
func NewEtcdKeyStore(endpoints []string) (*EtcdKeyStore, error) {
	c, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	return &EtcdKeyStore{client: c}, nil
}

func (s *EtcdKeyStore) Put(identity string, publicKey [32]byte) error {
	_, err := s.client.Put(context.Background(), etcdKeyPrefix+identity, string(publicKey[:]))
	return err
}

func (s *EtcdKeyStore) Get(identity string) ([32]byte, bool, error) {
	var key [32]byte
	resp, err := s.client.Get(context.Background(), etcdKeyPrefix+identity)
	if err != nil {
		return key, false, err
	}
	if len(resp.Kvs) == 0 {
		return key, false, nil
	}
	copy(key[:], resp.Kvs[0].Value)
	return key, true, nil
}

func (s *EtcdKeyStore) Delete(identity string) error {
	_, err := s.client.Delete(context.Background(), etcdKeyPrefix+identity)
	return err
}

// Close releases the underlying etcd client connection.
func (s *EtcdKeyStore) Close() error {
	return s.client.Close()
}
