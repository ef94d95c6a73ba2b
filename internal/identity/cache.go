package identity

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	verifyKeyPrefix  = "identity:verify:"
	subjectKeyPrefix = "identity:subject:"
)

// CachedVerifier caches successful Verify results in Redis so that every
// request does not round-trip to the provider. Invalidate purges the
// subject's cached tokens before forwarding, so a forced sign-out takes
// effect immediately. Cache failures degrade to a provider call, never to an
// implicit allow.
type CachedVerifier struct {
	provider Provider
	cache    *redis.Client
	ttl      time.Duration
	log      zerolog.Logger
}

func NewCachedVerifier(provider Provider, cache *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedVerifier {
	return &CachedVerifier{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		log:      log,
	}
}

func (v *CachedVerifier) SignUp(ctx context.Context, email, password, displayName string) (Identity, error) {
	return v.provider.SignUp(ctx, email, password, displayName)
}

func (v *CachedVerifier) SignIn(ctx context.Context, email, password string) (string, Identity, error) {
	return v.provider.SignIn(ctx, email, password)
}

func (v *CachedVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	key := verifyKeyPrefix + tokenDigest(token)

	if v.cache != nil {
		if payload, err := v.cache.Get(ctx, key).Bytes(); err == nil {
			var ident Identity
			if err := json.Unmarshal(payload, &ident); err == nil {
				if ident.ExpiresAt.IsZero() || time.Now().Before(ident.ExpiresAt) {
					return ident, nil
				}
				return Identity{}, ErrTokenExpired
			}
		}
	}

	ident, err := v.provider.Verify(ctx, token)
	if err != nil {
		return Identity{}, err
	}

	if v.cache != nil {
		v.store(ctx, key, ident)
	}
	return ident, nil
}

func (v *CachedVerifier) Invalidate(ctx context.Context, subjectID string) error {
	if v.cache != nil {
		setKey := subjectKeyPrefix + subjectID
		keys, err := v.cache.SMembers(ctx, setKey).Result()
		if err == nil && len(keys) > 0 {
			if err := v.cache.Del(ctx, keys...).Err(); err != nil {
				v.log.Warn().Err(err).Str("subject_id", subjectID).Msg("purge cached tokens failed")
			}
		}
		if err := v.cache.Del(ctx, setKey).Err(); err != nil {
			v.log.Warn().Err(err).Str("subject_id", subjectID).Msg("purge subject index failed")
		}
	}

	return v.provider.Invalidate(ctx, subjectID)
}

func (v *CachedVerifier) store(ctx context.Context, key string, ident Identity) {
	ttl := v.ttl
	if !ident.ExpiresAt.IsZero() {
		if remaining := time.Until(ident.ExpiresAt); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}

	payload, err := json.Marshal(ident)
	if err != nil {
		return
	}

	pipe := v.cache.TxPipeline()
	pipe.Set(ctx, key, payload, ttl)
	pipe.SAdd(ctx, subjectKeyPrefix+ident.SubjectID, key)
	pipe.Expire(ctx, subjectKeyPrefix+ident.SubjectID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		v.log.Debug().Err(err).Msg("cache verified token failed")
	}
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
