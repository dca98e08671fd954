// Package connection reports on the configured database and tests ad-hoc descriptors.
package connection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"github.com/salesboard/salesboard/internal/platform/db"
	"github.com/salesboard/salesboard/internal/platform/httpx"
)

// SSLModes lists the sslmode values accepted by the test form.
var SSLModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

var validate = validator.New()

// TestResult describes a successful one-off connection.
type TestResult struct {
	Database string
	Version  string
	Elapsed  time.Duration
}

// Form is the submitted test descriptor. Port is kept as text so the form can be re-rendered verbatim.
type Form struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	SSLMode  string
}

// Descriptor validates the form and converts it into a connection descriptor.
func (f Form) Descriptor() (db.Descriptor, error) {
	port, err := strconv.Atoi(strings.TrimSpace(f.Port))
	if err != nil {
		return db.Descriptor{}, fmt.Errorf("port must be a number: %w", httpx.ErrValidation)
	}
	desc := db.Descriptor{
		Host:     strings.TrimSpace(f.Host),
		Database: strings.TrimSpace(f.Database),
		User:     strings.TrimSpace(f.User),
		Password: f.Password,
		Port:     port,
		SSLMode:  f.SSLMode,
	}
	if err := validate.Struct(desc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return db.Descriptor{}, fmt.Errorf("%s is invalid: %w", strings.ToLower(verrs[0].Field()), httpx.ErrValidation)
		}
		return db.Descriptor{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	return desc, nil
}

// Checker reads server state from the configured pool and tests other descriptors.
type Checker struct {
	connector db.Connector
	connect   func(ctx context.Context, desc db.Descriptor) (*pgx.Conn, error)
}

// NewChecker constructs a Checker over the configured pool.
func NewChecker(connector db.Connector) *Checker {
	return &Checker{connector: connector, connect: db.Connect}
}

// ServerTime returns NOW() from the configured database.
func (c *Checker) ServerTime(ctx context.Context) (time.Time, error) {
	conn, release, err := c.connector.Acquire(ctx)
	if err != nil {
		return time.Time{}, err
	}
	defer release()

	rows, err := conn.Query(ctx, "SELECT NOW()")
	if err != nil {
		return time.Time{}, fmt.Errorf("connection: server time: %w", err)
	}
	now, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[time.Time])
	if err != nil {
		return time.Time{}, fmt.Errorf("connection: server time: %w", err)
	}
	return now, nil
}

// Test opens a single connection with desc, reads version and database, and closes it.
func (c *Checker) Test(ctx context.Context, desc db.Descriptor) (TestResult, error) {
	start := time.Now()
	conn, err := c.connect(ctx, desc)
	if err != nil {
		return TestResult{}, err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	var res TestResult
	if err := conn.QueryRow(ctx, "SELECT version(), current_database()").Scan(&res.Version, &res.Database); err != nil {
		return TestResult{}, fmt.Errorf("connection: probe: %w", err)
	}
	res.Elapsed = time.Since(start).Round(time.Millisecond)
	return res, nil
}
