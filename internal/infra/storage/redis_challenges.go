package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const challengeKeyPrefix = "mint:challenge"

// RedisChallengeStore 基于 SET NX PX 的去重挑战存储
type RedisChallengeStore struct {
	client *redis.Client
	prefix string
}

// NewRedisChallengeStore 创建 Redis 挑战存储
func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: challengeKeyPrefix,
	}
}

func (s *RedisChallengeStore) key(identifier string) string {
	return fmt.Sprintf("%s:%s", s.prefix, identifier)
}

// CreateChallenge 仅在不存在时写入，TTL 取 ExpiresAt
func (s *RedisChallengeStore) CreateChallenge(ctx context.Context, challenge MintChallenge) error {
	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		return errors.New("challenge already expired")
	}

	ok, err := s.client.SetNX(ctx, s.key(challenge.Identifier), challenge.Token, ttl).Result()
	if err != nil {
		return errors.Wrap(err, "failed to store challenge")
	}
	if !ok {
		return errors.Wrapf(ErrChallengeExists, "identifier %s", challenge.Identifier)
	}
	return nil
}

// GetChallenge 读取挑战及其剩余有效期
func (s *RedisChallengeStore) GetChallenge(ctx context.Context, identifier string) (*MintChallenge, error) {
	key := s.key(identifier)

	token, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.Wrapf(ErrNotFound, "challenge %s", identifier)
		}
		return nil, errors.Wrap(err, "failed to get challenge")
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get challenge ttl")
	}

	return &MintChallenge{
		Identifier: identifier,
		Token:      token,
		ExpiresAt:  time.Now().Add(ttl),
	}, nil
}

// Ping Redis 连通性
func (s *RedisChallengeStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
