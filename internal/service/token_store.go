package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	accessTokenPrefix  = "access_token"
	refreshTokenPrefix = "refresh_token"
	revokeScanCount    = 100
)

// TokenStore is the allow-list of issued tokens. A token is valid only while its key exists.
type TokenStore interface {
	Store(ctx context.Context, userID uuid.UUID, accessID string, accessTTL time.Duration, refreshID string, refreshTTL time.Duration) error
	IsAccessValid(ctx context.Context, userID uuid.UUID, accessID string) (bool, error)
	// ConsumeRefresh deletes the refresh token and reports whether it existed.
	ConsumeRefresh(ctx context.Context, userID uuid.UUID, refreshID string) (bool, error)
	Revoke(ctx context.Context, userID uuid.UUID, accessID, refreshID string) error
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

type redisTokenStore struct {
	redisClient *redis.Client
	log         *logrus.Logger
}

func NewRedisTokenStore(redisClient *redis.Client, log *logrus.Logger) TokenStore {
	return &redisTokenStore{redisClient: redisClient, log: log}
}

func tokenKey(prefix string, userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, userID, tokenID)
}

func (s *redisTokenStore) Store(ctx context.Context, userID uuid.UUID, accessID string, accessTTL time.Duration, refreshID string, refreshTTL time.Duration) error {
	pipe := s.redisClient.TxPipeline()
	pipe.Set(ctx, tokenKey(accessTokenPrefix, userID, accessID), "valid", accessTTL)
	pipe.Set(ctx, tokenKey(refreshTokenPrefix, userID, refreshID), "valid", refreshTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store tokens for user %s: %w", userID, err)
	}
	return nil
}

func (s *redisTokenStore) IsAccessValid(ctx context.Context, userID uuid.UUID, accessID string) (bool, error) {
	exists, err := s.redisClient.Exists(ctx, tokenKey(accessTokenPrefix, userID, accessID)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *redisTokenStore) ConsumeRefresh(ctx context.Context, userID uuid.UUID, refreshID string) (bool, error) {
	deleted, err := s.redisClient.Del(ctx, tokenKey(refreshTokenPrefix, userID, refreshID)).Result()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

func (s *redisTokenStore) Revoke(ctx context.Context, userID uuid.UUID, accessID, refreshID string) error {
	keys := []string{tokenKey(accessTokenPrefix, userID, accessID)}
	if refreshID != "" {
		keys = append(keys, tokenKey(refreshTokenPrefix, userID, refreshID))
	}
	return s.redisClient.Del(ctx, keys...).Err()
}

// RevokeAll removes every token of the user. SCAN keeps Redis responsive on large keyspaces.
func (s *redisTokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	for _, prefix := range []string{accessTokenPrefix, refreshTokenPrefix} {
		pattern := fmt.Sprintf("%s:%s:*", prefix, userID)
		iter := s.redisClient.Scan(ctx, 0, pattern, revokeScanCount).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
	}
	s.log.Infof("Revoked all tokens for user %s", userID)
	return nil
}
