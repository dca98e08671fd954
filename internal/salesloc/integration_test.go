package salesloc

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/salesboard/salesboard/internal/platform/db"
)

const pgDSNEnv = "SALESBOARD_TEST_PG_DSN"

type postgresSuite struct {
	suite.Suite
	pool    *pgxpool.Pool
	table   string
	service *Service
}

func TestPostgresSuite(t *testing.T) {
	dsn := os.Getenv(pgDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", pgDSNEnv)
	}
	suite.Run(t, &postgresSuite{})
}

func (s *postgresSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.New(ctx, db.Descriptor{DSN: os.Getenv(pgDSNEnv)})
	s.Require().NoError(err)
	s.pool = pool
	s.table = fmt.Sprintf("salesloc_it_%d", time.Now().UnixNano())

	_, err = pool.Exec(ctx, "CREATE TABLE "+s.table+` (
		period TEXT, created_date TEXT, batch_date TEXT, location_code TEXT,
		product_code TEXT, product_name TEXT, contributed_quantity TEXT)`)
	s.Require().NoError(err)

	seed := [][]string{
		{"2024-01-01", "2024-01-05", "2024-01-06", "L1", "C1", "Cola", "5"},
		{"2024-01-01", "2024-01-05", "2024-01-06", "L1", "C1", "Cola", "5"},
		{"2024-01-01", "2024-01-05", "2024-01-06", "L1", "C1", "Cola", "5"},
		{"2024-01-01", "2024-01-07", "2024-01-08", "L1", "C2", "Tea", "40"},
		{"2024-01-01", "2024-01-07", "2024-01-08", "L2", "C1", "Cola", "2.5"},
		{"2024-02-01", "2024-02-03", "2024-02-04", "L1", "C2", "Tea", "1"},
	}
	for _, r := range seed {
		_, err := pool.Exec(ctx, "INSERT INTO "+s.table+" VALUES ($1,$2,$3,$4,$5,$6,$7)", r[0], r[1], r[2], r[3], r[4], r[5], r[6])
		s.Require().NoError(err)
	}

	builder, err := NewBuilder(s.table)
	s.Require().NoError(err)
	s.service = NewService(builder, NewExecutor(db.PoolConnector{Pool: pool}, nil), nil)
}

func (s *postgresSuite) TearDownSuite() {
	if s.pool == nil {
		return
	}
	_, _ = s.pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+s.table)
	s.pool.Close()
}

func (s *postgresSuite) run(c FilterCriteria) Result {
	res, err := s.service.Run(context.Background(), Request{Criteria: c})
	s.Require().NoError(err)
	return res
}

func (s *postgresSuite) januaryCreated() FilterCriteria {
	return FilterCriteria{
		DateField: DateFieldCreated,
		Range:     DateRange{Start: day("2024-01-01"), End: day("2024-01-31")},
	}
}

func (s *postgresSuite) TestDuplicateRowsCollapse() {
	c := s.januaryCreated()
	c.Products = []ProductRef{{Code: "C1", Name: "Cola"}}
	c.Locations = []string{"L1"}
	res := s.run(c)
	s.Require().Len(res.Rows, 1)
	s.Equal("15", res.Rows[0].TotalQuantity.String())
}

func (s *postgresSuite) TestProductFilterKeepsOnlySelection() {
	c := s.januaryCreated()
	c.Products = []ProductRef{{Code: "C1", Name: "Cola"}}
	res := s.run(c)
	s.Require().NotEmpty(res.Rows)
	for _, row := range res.Rows {
		s.Equal("C1", row.ProductCode)
	}
	s.Equal(1, res.Summary.DistinctProductCount)
	s.Equal(2, res.Summary.DistinctLocationCount)
}

func (s *postgresSuite) TestNullQuantitiesSortAsZero() {
	ctx := context.Background()
	for _, qty := range []any{nil, "3"} {
		_, err := s.pool.Exec(ctx, "INSERT INTO "+s.table+" VALUES ($1,$2,$3,$4,$5,$6,$7)",
			"2025-06-01", "2025-06-10", "2025-06-11", "L9", fmt.Sprintf("N%v", qty != nil), " Widget ", qty)
		s.Require().NoError(err)
	}

	c := FilterCriteria{
		DateField: DateFieldCreated,
		Range:     DateRange{Start: day("2025-06-01"), End: day("2025-06-30")},
		Products:  []ProductRef{{Code: "Nfalse", Name: " Widget "}, {Code: "Ntrue", Name: " Widget "}},
	}
	res := s.run(c)
	s.Require().Len(res.Rows, 2)
	s.Equal("3", res.Rows[0].TotalQuantity.String())
	s.True(res.Rows[1].TotalQuantity.IsZero())
	s.Equal(" Widget ", res.Rows[1].ProductName)
}

func (s *postgresSuite) TestOutOfRangeIsEmpty() {
	c := s.januaryCreated()
	c.Range = DateRange{Start: day("2030-01-01"), End: day("2030-12-31")}
	res := s.run(c)
	s.True(res.Empty())
	s.Equal(0, res.Summary.RecordCount)
	s.True(res.Summary.QuantitySum.IsZero())
}

func (s *postgresSuite) TestOrdering() {
	c := s.januaryCreated()
	c.DateField = DateFieldBatch
	c.Range.End = day("2024-02-28")
	res := s.run(c)
	s.Require().Len(res.Rows, 4)
	s.Equal("2024-02-01", res.Rows[0].Period)
	for i := 1; i < len(res.Rows); i++ {
		prev, cur := res.Rows[i-1], res.Rows[i]
		if prev.Period != cur.Period {
			s.Greater(prev.Period, cur.Period)
			continue
		}
		if prev.LocationCode != cur.LocationCode {
			s.Less(prev.LocationCode, cur.LocationCode)
			continue
		}
		s.True(prev.TotalQuantity.GreaterThanOrEqual(cur.TotalQuantity))
	}
	// within (2024-01-01, L1): Tea 40 before Cola 15
	s.Equal("C2", res.Rows[1].ProductCode)
	s.Equal("C1", res.Rows[2].ProductCode)
}

func (s *postgresSuite) TestIdempotent() {
	c := s.januaryCreated()
	s.Equal(s.run(c).Rows, s.run(c).Rows)
}

func (s *postgresSuite) TestBogusDateFieldRejected() {
	c := s.januaryCreated()
	c.DateField = "bogus"
	_, err := s.service.Run(context.Background(), Request{Criteria: c})
	s.ErrorIs(err, ErrInvalidFilter)
}
