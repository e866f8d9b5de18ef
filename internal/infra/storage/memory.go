package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
)

// MemoryStore 内存实现，用于测试与本地开发
type MemoryStore struct {
	mu          sync.Mutex
	clock       time2.Clock
	users       map[string]User
	collections map[string]*Collection
	nfts        []NFT
	passkeys    map[string]Passkey
	challenges  map[string]MintChallenge
}

// NewMemoryStore 创建内存存储
func NewMemoryStore(clock time2.Clock) *MemoryStore {
	if clock == nil {
		clock = time2.DefaultClock
	}
	return &MemoryStore{
		clock:       clock,
		users:       make(map[string]User),
		collections: make(map[string]*Collection),
		passkeys:    make(map[string]Passkey),
		challenges:  make(map[string]MintChallenge),
	}
}

// PutUser 写入用户
func (s *MemoryStore) PutUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// PutCollection 写入合集
func (s *MemoryStore) PutCollection(c Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[c.ID] = &c
}

// PutNFT 写入 NFT（可带软删除时间）
func (s *MemoryStore) PutNFT(nft NFT) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nfts = append(s.nfts, nft)
}

// Collection 返回合集快照
func (s *MemoryStore) Collection(id string) (Collection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		return Collection{}, false
	}
	return *c, true
}

// NFTs 返回全部 NFT 记录
func (s *MemoryStore) NFTs() []NFT {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]NFT(nil), s.nfts...)
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "user %s", userID)
	}
	for _, p := range s.passkeys {
		if p.UserID == userID {
			user.PasskeyCount++
		}
	}
	return &user, nil
}

func (s *MemoryStore) GetCollectionBySession(ctx context.Context, sessionID string) (*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.collections {
		if c.SessionID == sessionID {
			found := *c
			return &found, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "collection for session %s", sessionID)
}

func (s *MemoryStore) IncrementMinted(ctx context.Context, collectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collectionID]
	if !ok {
		return errors.Wrapf(ErrNotFound, "collection %s", collectionID)
	}
	if c.MintedAmount >= c.TotalSupply {
		return errors.Wrapf(ErrSupplyExhausted, "collection %s", collectionID)
	}
	c.MintedAmount++
	return nil
}

func (s *MemoryStore) DecrementMinted(ctx context.Context, collectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collectionID]
	if !ok || c.MintedAmount <= 0 {
		return errors.Wrapf(ErrNotFound, "collection %s has nothing to release", collectionID)
	}
	c.MintedAmount--
	return nil
}

func (s *MemoryStore) HasClaimed(ctx context.Context, userID, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, nft := range s.nfts {
		if nft.UserID == userID && nft.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CreateNFT(ctx context.Context, nft *NFT) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nfts = append(s.nfts, *nft)
	return nil
}

func (s *MemoryStore) CreateChallenge(ctx context.Context, challenge MintChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.challenges[challenge.Identifier]; ok && s.clock.Now().Before(existing.ExpiresAt) {
		return errors.Wrapf(ErrChallengeExists, "identifier %s", challenge.Identifier)
	}
	s.challenges[challenge.Identifier] = challenge
	return nil
}

func (s *MemoryStore) GetChallenge(ctx context.Context, identifier string) (*MintChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[identifier]
	if !ok || !s.clock.Now().Before(challenge.ExpiresAt) {
		return nil, errors.Wrapf(ErrNotFound, "challenge %s", identifier)
	}
	return &challenge, nil
}

func (s *MemoryStore) ListPasskeys(ctx context.Context, userID string) ([]Passkey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Passkey
	for _, p := range s.passkeys {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CredentialID < out[j].CredentialID })
	return out, nil
}

func (s *MemoryStore) SavePasskey(ctx context.Context, passkey *Passkey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[passkey.UserID]; !ok {
		return errors.Wrapf(ErrNotFound, "user %s", passkey.UserID)
	}
	if _, ok := s.passkeys[passkey.CredentialID]; ok {
		return errors.Wrapf(ErrPasskeyExists, "credential %s", passkey.CredentialID)
	}
	p := *passkey
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.clock.Now()
	}
	s.passkeys[p.CredentialID] = p
	return nil
}
