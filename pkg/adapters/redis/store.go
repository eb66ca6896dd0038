package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/elementx/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Client holds the Redis connection shared by the sample, user and
// measurement stores.
//
// Key layout (with the default prefix):
//
//	elementx:sample:<id>                  JSON sample
//	elementx:samples:user:<userID>        ZSET of sample IDs scored by creation time
//	elementx:measurement:<id>             JSON measurement
//	elementx:measurements:user:<userID>   ZSET of measurement IDs
//	elementx:user:<id>                    JSON user
//	elementx:user:email:<lower(email)>    user ID
type Client struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Client)

// WithTTL sets the expiration for samples and measurements. Users never expire.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Client) {
		c.prefix = prefix
	}
}

// New creates a new Redis client with options.
func New(address, password string, db int, opts ...Option) *Client {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(client *backend.Client, opts ...Option) *Client {
	c := &Client{
		client: client,
		prefix: "elementx:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Samples returns the sample store.
func (c *Client) Samples() *SampleStore {
	return &SampleStore{records: records{c: c, kind: "sample"}}
}

// Measurements returns the measurement store.
func (c *Client) Measurements() *MeasurementStore {
	return &MeasurementStore{records: records{c: c, kind: "measurement"}}
}

// Users returns the user store.
func (c *Client) Users() *UserStore {
	return &UserStore{c: c}
}

// records is a JSON document collection with a per-user ZSET index.
type records struct {
	c    *Client
	kind string
}

func (r records) key(id string) string {
	return r.c.prefix + r.kind + ":" + id
}

func (r records) indexKey(userID string) string {
	return r.c.prefix + r.kind + "s:user:" + userID
}

// owner reads the user_id of a stored document, or "" if there is none.
func (r records) owner(ctx context.Context, id string) (string, error) {
	raw, err := r.c.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get %s from redis: %w", r.kind, err)
	}
	var doc struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("failed to unmarshal %s: %w", r.kind, err)
	}
	return doc.UserID, nil
}

func (r records) save(ctx context.Context, id, userID string, createdAt time.Time, v any) error {
	if id == "" {
		return fmt.Errorf("%s id cannot be empty", r.kind)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", r.kind, err)
	}

	previous, err := r.owner(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.c.client.TxPipeline()

	// 1. Save JSON with TTL (0 means no expiration)
	pipe.Set(ctx, r.key(id), data, r.c.ttl)

	// 2. Re-home the index entry if the owner changed
	if previous != "" && previous != userID {
		pipe.ZRem(ctx, r.indexKey(previous), id)
	}
	pipe.ZAdd(ctx, r.indexKey(userID), backend.Z{
		Score:  float64(createdAt.UnixMicro()),
		Member: id,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save %s to redis: %w", r.kind, err)
	}
	return nil
}

func (r records) load(ctx context.Context, id string, dst any, notFound error) error {
	val, err := r.c.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return notFound
		}
		return fmt.Errorf("failed to get %s from redis: %w", r.kind, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", r.kind, err)
	}
	return nil
}

func (r records) delete(ctx context.Context, id string) error {
	userID, err := r.owner(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.c.client.TxPipeline()
	pipe.Del(ctx, r.key(id))
	if userID != "" {
		pipe.ZRem(ctx, r.indexKey(userID), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// list returns the raw documents of a user, newest first. Index entries
// whose documents have expired are pruned lazily.
func (r records) list(ctx context.Context, userID string) ([][]byte, error) {
	ids, err := r.c.client.ZRevRange(ctx, r.indexKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", r.kind, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	vals, err := r.c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %ss: %w", r.kind, err)
	}

	var (
		docs  [][]byte
		stale []any
	)
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		docs = append(docs, []byte(s))
	}

	if len(stale) > 0 {
		if err := r.c.client.ZRem(ctx, r.indexKey(userID), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired %ss: %w", r.kind, err)
		}
	}
	return docs, nil
}

// SampleStore implements ports.SampleStore using Redis.
type SampleStore struct {
	records
}

// Save persists the sample and indexes it under its owner.
func (s *SampleStore) Save(ctx context.Context, sample *domain.Sample) error {
	return s.save(ctx, sample.ID, sample.UserID, sample.CreatedAt, sample)
}

// Load retrieves the sample from Redis.
func (s *SampleStore) Load(ctx context.Context, id string) (*domain.Sample, error) {
	var sample domain.Sample
	if err := s.load(ctx, id, &sample, domain.ErrSampleNotFound); err != nil {
		return nil, err
	}
	return &sample, nil
}

// Delete removes the sample and its index entry.
func (s *SampleStore) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id)
}

// List returns the user's samples, newest first.
func (s *SampleStore) List(ctx context.Context, userID string) ([]domain.Sample, error) {
	docs, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	samples := make([]domain.Sample, 0, len(docs))
	for _, doc := range docs {
		var sample domain.Sample
		if err := json.Unmarshal(doc, &sample); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sample: %w", err)
		}
		samples = append(samples, sample)
	}
	slices.SortStableFunc(samples, func(a, b domain.Sample) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return samples, nil
}

// MeasurementStore implements ports.MeasurementStore using Redis.
type MeasurementStore struct {
	records
}

// Save persists the measurement and indexes it under its owner.
func (s *MeasurementStore) Save(ctx context.Context, m *domain.Measurement) error {
	return s.save(ctx, m.ID, m.UserID, m.CreatedAt, m)
}

// Load retrieves the measurement from Redis.
func (s *MeasurementStore) Load(ctx context.Context, id string) (*domain.Measurement, error) {
	var m domain.Measurement
	if err := s.load(ctx, id, &m, domain.ErrMeasurementNotFound); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the user's measurements, newest first.
func (s *MeasurementStore) List(ctx context.Context, userID string) ([]domain.Measurement, error) {
	docs, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Measurement, 0, len(docs))
	for _, doc := range docs {
		var m domain.Measurement
		if err := json.Unmarshal(doc, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal measurement: %w", err)
		}
		out = append(out, m)
	}
	slices.SortStableFunc(out, func(a, b domain.Measurement) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// UserStore implements ports.UserStore using Redis.
// Email uniqueness is claimed with SETNX on the email key.
type UserStore struct {
	c *Client
}

// userRecord keeps the password hash, which domain.User hides from JSON.
type userRecord struct {
	domain.User
	PasswordHash []byte `json:"password_hash"`
}

func (s *UserStore) key(id string) string {
	return s.c.prefix + "user:" + id
}

func (s *UserStore) emailKey(email string) string {
	return s.c.prefix + "user:email:" + strings.ToLower(strings.TrimSpace(email))
}

// Create claims the email and stores the user.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(userRecord{User: *user, PasswordHash: user.PasswordHash})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	claimed, err := s.c.client.SetNX(ctx, s.emailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim email: %w", err)
	}
	if !claimed {
		return domain.ErrEmailTaken
	}

	if err := s.c.client.Set(ctx, s.key(user.ID), data, 0).Err(); err != nil {
		// Release the claim so the email can be retried.
		_ = s.c.client.Del(ctx, s.emailKey(user.Email)).Err()
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// FindByEmail resolves the email index, then loads the user.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := s.c.client.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	return s.FindByID(ctx, id)
}

// FindByID loads a user.
func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	val, err := s.c.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user from redis: %w", err)
	}
	var rec userRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	user := rec.User
	user.PasswordHash = rec.PasswordHash
	return &user, nil
}
