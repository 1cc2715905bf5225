package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/config"
	"github.com/jafarshop/servicecart/internal/repository"
)

const keyPrefix = "identity:"

// IdentityStore persists identities as plain redis keys without expiry.
type IdentityStore struct {
	client *redis.Client
	logger *zap.Logger
}

var _ repository.IdentityStore = (*IdentityStore)(nil)

// NewClient creates a redis client and verifies the connection.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewIdentityStore(client *redis.Client, logger *zap.Logger) *IdentityStore {
	return &IdentityStore{client: client, logger: logger}
}

// NewRepositories returns redis-backed repositories
func NewRepositories(client *redis.Client, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{Identity: NewIdentityStore(client, logger)}
}

func guestKey(profile string) string { return keyPrefix + profile + ":guest_id" }

func tokenKey(profile string) string { return keyPrefix + profile + ":token" }

func (s *IdentityStore) EnsureGuestID(ctx context.Context, profile, candidate string) (string, error) {
	if err := s.client.SetNX(ctx, guestKey(profile), candidate, 0).Err(); err != nil {
		s.logger.Error("Failed to set guest id", zap.String("profile", profile), zap.Error(err))
		return "", err
	}

	guestID, err := s.client.Get(ctx, guestKey(profile)).Result()
	if err != nil {
		s.logger.Error("Failed to read guest id", zap.String("profile", profile), zap.Error(err))
		return "", err
	}
	return guestID, nil
}

func (s *IdentityStore) Token(ctx context.Context, profile string) (string, error) {
	token, err := s.client.Get(ctx, tokenKey(profile)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		s.logger.Error("Failed to read token", zap.String("profile", profile), zap.Error(err))
		return "", err
	}
	return token, nil
}

func (s *IdentityStore) SaveToken(ctx context.Context, profile, token string) error {
	return s.client.Set(ctx, tokenKey(profile), token, 0).Err()
}

func (s *IdentityStore) ClearToken(ctx context.Context, profile string) error {
	return s.client.Del(ctx, tokenKey(profile)).Err()
}

func (s *IdentityStore) Close() error {
	return s.client.Close()
}
