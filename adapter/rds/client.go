// client.go: Redis client wrapper for the warden coordination adapters
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package rds

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of *redis.Client every adapter in this
// package depends on, kept narrow so callers can pass a *redis.Client,
// a *redis.ClusterClient, or a test double interchangeably.
type RedisClient interface {
	redis.Scripter
	Ping(ctx context.Context) *redis.StatusCmd
}

// Client wraps a go-redis client with the connection diagnostics the
// rest of warden's adapters share.
type Client struct {
	RedisClient
}

// NewClient dials addr/db and verifies connectivity with a bounded ping,
// mirroring the diagnostic-on-connect pattern used across the retrieved
// corpus's own Redis wrappers.
func NewClient(addr string, db int) (*Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	c := &Client{RedisClient: rc}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// WrapClient adapts an already-constructed go-redis client (or cluster
// client) without dialing, for callers that manage their own connection
// pool and lifecycle.
func WrapClient(rc RedisClient) *Client {
	return &Client{RedisClient: rc}
}
