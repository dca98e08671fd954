package db

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Descriptor identifies a PostgreSQL database. DSN, when set, wins over the discrete fields.
type Descriptor struct {
	DSN      string
	Host     string `validate:"required,hostname_rfc1123|ip"`
	Database string `validate:"required"`
	User     string `validate:"required"`
	Password string
	Port     int    `validate:"required,min=1,max=65535"`
	SSLMode  string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

// ConnString renders the descriptor as a postgres:// URL.
func (d Descriptor) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	port := d.Port
	if port == 0 {
		port = 5432
	}
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(port)),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": []string{sslmode}}.Encode(),
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else if d.User != "" {
		u.User = url.User(d.User)
	}
	return u.String()
}

// Redacted returns a copy without credentials, safe for display and logs.
func (d Descriptor) Redacted() Descriptor {
	out := d
	out.Password = ""
	if out.DSN != "" {
		if cfg, err := pgx.ParseConfig(out.DSN); err == nil {
			out.Host = cfg.Host
			out.Port = int(cfg.Port)
			out.Database = cfg.Database
			out.User = cfg.User
		}
		out.DSN = ""
	}
	return out
}

// New creates a new PostgreSQL connection pool.
func New(ctx context.Context, desc Descriptor) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(desc.ConnString())
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}

// Connect opens a single, unpooled connection. Callers must Close it.
func Connect(ctx context.Context, desc Descriptor) (*pgx.Conn, error) {
	config, err := pgx.ParseConfig(desc.ConnString())
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}
	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: connect: %w", err)
	}
	return conn, nil
}
