package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"billdesk/internal/logger"
	"billdesk/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "billdesk"

type CacheService interface {
	// Company profile caching
	GetCompany(ctx context.Context, companyID uuid.UUID) (*models.Company, error)
	SetCompany(ctx context.Context, company *models.Company, ttl time.Duration) error

	// Logo bytes, read on every bill render
	GetLogo(ctx context.Context, companyID uuid.UUID) ([]byte, error)
	SetLogo(ctx context.Context, companyID uuid.UUID, data []byte, ttl time.Duration) error

	// Cache invalidation
	InvalidateCompanyCache(ctx context.Context, companyID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Single-use OAuth state nonces
	SetOAuthState(ctx context.Context, nonce string, companyID uuid.UUID, ttl time.Duration) error
	ConsumeOAuthState(ctx context.Context, nonce string) (uuid.UUID, bool, error)

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int, log *logger.Logger) CacheService {
	// Accept redis://host:port as well as host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warnw("Redis ping failed on initialization", "address", parsedAddr, "error", err)
	} else {
		log.Debugw("Redis connection established", "address", parsedAddr)
	}

	return &redisCacheService{client: client}
}

func companyKey(companyID uuid.UUID) string {
	return fmt.Sprintf("%s:company:%s", keyPrefix, companyID)
}

func logoKey(companyID uuid.UUID) string {
	return fmt.Sprintf("%s:logo:%s", keyPrefix, companyID)
}

func oauthStateKey(nonce string) string {
	return fmt.Sprintf("%s:oauth_state:%s", keyPrefix, nonce)
}

func (r *redisCacheService) GetCompany(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	data, err := r.client.Get(ctx, companyKey(companyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var company models.Company
	if err := json.Unmarshal(data, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *redisCacheService) SetCompany(ctx context.Context, company *models.Company, ttl time.Duration) error {
	data, err := json.Marshal(company)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, companyKey(company.ID), data, ttl).Err()
}

func (r *redisCacheService) GetLogo(ctx context.Context, companyID uuid.UUID) ([]byte, error) {
	data, err := r.client.Get(ctx, logoKey(companyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}
	return data, nil
}

func (r *redisCacheService) SetLogo(ctx context.Context, companyID uuid.UUID, data []byte, ttl time.Duration) error {
	return r.client.Set(ctx, logoKey(companyID), data, ttl).Err()
}

func (r *redisCacheService) InvalidateCompanyCache(ctx context.Context, companyID uuid.UUID) error {
	return r.client.Del(ctx, companyKey(companyID), logoKey(companyID)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) SetOAuthState(ctx context.Context, nonce string, companyID uuid.UUID, ttl time.Duration) error {
	return r.client.Set(ctx, oauthStateKey(nonce), companyID.String(), ttl).Err()
}

// ConsumeOAuthState deletes the nonce and returns the company it was issued
// for. A second call for the same nonce reports false.
func (r *redisCacheService) ConsumeOAuthState(ctx context.Context, nonce string) (uuid.UUID, bool, error) {
	val, err := r.client.GetDel(ctx, oauthStateKey(nonce)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
