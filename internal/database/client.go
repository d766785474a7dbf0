/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package database provides the read-only client for the target database
// that generated queries run against.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pgedge-text2sql/internal/logging"
)

const applicationName = "pgEdge Text-to-SQL Agent"

// Client wraps a connection pool to the target database. Every session
// runs with default_transaction_read_only=on, so even a statement that
// slips past the gate cannot write.
type Client struct {
	connStr string
	pool    *pgxpool.Pool
}

// NewClient creates an unconnected client for the given connection string
func NewClient(connStr string) *Client {
	return &Client{connStr: connStr}
}

// Connect establishes the connection pool and verifies it with a ping
func (c *Client) Connect(ctx context.Context) error {
	start := time.Now()

	enhanced, err := addApplicationName(c.connStr, applicationName)
	if err != nil {
		return fmt.Errorf("unable to enhance connection string: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(enhanced)
	if err != nil {
		return fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Enforced at the session level so it covers every statement the pool
	// ever runs
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = make(map[string]string)
	}
	poolConfig.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("unable to ping database: %w", err)
	}

	c.pool = pool
	logging.Debug("connected to target database", "duration", time.Since(start).String())
	return nil
}

// Pool returns the underlying pool, nil before Connect
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Close releases the connection pool
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}

// addApplicationName adds the application_name parameter to a PostgreSQL
// connection string unless one is already present
func addApplicationName(connStr, appName string) (string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid connection string: %w", err)
	}

	query := u.Query()
	if !query.Has("application_name") {
		query.Set("application_name", appName)
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}
