// Copyright (c) 2026 IJAA. All rights reserved.
// Author: platform@ijaa.dev

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ijaa/alumni/internal/platform/apperr"
	"github.com/ijaa/alumni/internal/platform/constants"
)

// RedisResetTokenRepository stores one-time password-reset tokens in Redis.
// The TTL is enforced by Redis itself, so no sweeper is needed for these.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository creates a new Redis implementation of ResetTokenRepository.
func NewResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

func resetTokenKey(tokenHash string) string {
	return constants.RedisPrefixResetToken + tokenHash
}

// Set stores the user ID behind the hashed reset token for ttl.
func (repository *RedisResetTokenRepository) Set(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	if err := repository.client.Set(ctx, resetTokenKey(tokenHash), userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_repo_set_failed: %w", err)
	}
	return nil
}

// Get resolves the user ID behind a hashed reset token.
func (repository *RedisResetTokenRepository) Get(ctx context.Context, tokenHash string) (string, error) {
	userID, err := repository.client.Get(ctx, resetTokenKey(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Reset token")
		}
		return "", fmt.Errorf("redis_reset_repo_get_failed: %w", err)
	}
	return userID, nil
}

// Delete consumes a reset token. Deleting an unknown token is a no-op.
func (repository *RedisResetTokenRepository) Delete(ctx context.Context, tokenHash string) error {
	if err := repository.client.Del(ctx, resetTokenKey(tokenHash)).Err(); err != nil {
		return fmt.Errorf("redis_reset_repo_delete_failed: %w", err)
	}
	return nil
}
