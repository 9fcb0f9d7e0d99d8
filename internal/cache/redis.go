package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/AchAffand/SuratJalan-sub001/config"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

// CacheClient defines the interface for cache operations
type CacheClient interface {
	// Delivery note list caching
	GetNoteList(ctx context.Context) ([]*model.DeliveryNote, error)
	SetNoteList(ctx context.Context, notes []*model.DeliveryNote) error
	InvalidateNoteList(ctx context.Context) error

	// Purchase order caching by PO number
	GetPurchaseOrder(ctx context.Context, poNumber string) (*model.PurchaseOrder, error)
	SetPurchaseOrder(ctx context.Context, po *model.PurchaseOrder) error
	DeletePurchaseOrder(ctx context.Context, poNumber string) error

	// Clear all cache
	FlushAll(ctx context.Context) error
}

// RedisClient implements CacheClient using Redis
type RedisClient struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg *config.RedisConfig) (CacheClient, error) {
	if !cfg.Enabled {
		return &RedisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:  client,
		enabled: true,
		ttl:     time.Hour, // Default TTL
	}, nil
}

// NewNoopClient returns a disabled client, useful for tests and for running
// without Redis
func NewNoopClient() CacheClient {
	return &RedisClient{enabled: false}
}

// Prefix keys to avoid collisions
const noteListKey = "delivery_notes:list"

func purchaseOrderKey(poNumber string) string {
	return fmt.Sprintf("purchase_order:%s", poNumber)
}

// GetNoteList retrieves the cached delivery note list
func (c *RedisClient) GetNoteList(ctx context.Context) ([]*model.DeliveryNote, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, noteListKey).Bytes()
	if err != nil {
		return nil, err
	}

	var notes []*model.DeliveryNote
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, err
	}

	return notes, nil
}

// SetNoteList caches the delivery note list
func (c *RedisClient) SetNoteList(ctx context.Context, notes []*model.DeliveryNote) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(notes)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, noteListKey, data, c.ttl).Err()
}

// InvalidateNoteList drops the cached delivery note list
func (c *RedisClient) InvalidateNoteList(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, noteListKey).Err()
}

// GetPurchaseOrder retrieves a purchase order from cache
func (c *RedisClient) GetPurchaseOrder(ctx context.Context, poNumber string) (*model.PurchaseOrder, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, purchaseOrderKey(poNumber)).Bytes()
	if err != nil {
		return nil, err
	}

	var po model.PurchaseOrder
	if err := json.Unmarshal(data, &po); err != nil {
		return nil, err
	}

	return &po, nil
}

// SetPurchaseOrder caches a purchase order
func (c *RedisClient) SetPurchaseOrder(ctx context.Context, po *model.PurchaseOrder) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(po)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, purchaseOrderKey(po.PONumber), data, c.ttl).Err()
}

// DeletePurchaseOrder removes a purchase order from cache
func (c *RedisClient) DeletePurchaseOrder(ctx context.Context, poNumber string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, purchaseOrderKey(poNumber)).Err()
}

// FlushAll clears all cache
func (c *RedisClient) FlushAll(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	return c.client.FlushAll(ctx).Err()
}
