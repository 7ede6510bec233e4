package whitelabel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goShell/branding"
	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps Redis failures.
var ErrStoreUnavailable = errors.New("whitelabel store unavailable")

const (
	fieldName = "companyName"
	fieldLogo = "companyLogo"
)

// Store keeps tenant branding in Redis hashes.
//
//	Performance: Get is 1 HGETALL; Put is 1 MULTI/EXEC pipeline.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store using keys prefix:<tenant>. An empty prefix
// defaults to "wl".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "wl"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(tenant string) string {
	return s.prefix + ":" + tenant
}

// Get returns the tenant's branding. ok is false when the tenant has no
// record or the record has no company name.
func (s *Store) Get(ctx context.Context, tenant string) (b branding.Branding, ok bool, err error) {
	fields, err := s.redis.HGetAll(ctx, s.key(tenant)).Result()
	if err != nil {
		return branding.Branding{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	name := fields[fieldName]
	if name == "" {
		return branding.Branding{}, false, nil
	}
	b.CompanyName = name
	if logo := fields[fieldLogo]; logo != "" {
		b.CompanyLogoRef = &logo
	}
	return b, true, nil
}

// Put replaces the tenant's branding. A nil logo removes the stored logo.
func (s *Store) Put(ctx context.Context, tenant string, b branding.Branding) error {
	key := s.key(tenant)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldName, b.CompanyName)
		if ref := b.LogoRef(); ref != "" {
			pipe.HSet(ctx, key, fieldLogo, ref)
		} else {
			pipe.HDel(ctx, key, fieldLogo)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the tenant's branding, restoring the default.
func (s *Store) Delete(ctx context.Context, tenant string) error {
	if err := s.redis.Del(ctx, s.key(tenant)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
