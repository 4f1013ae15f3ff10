package pgrepo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shiprate-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// numericToDecimal converts without going through float64.
func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}

func pgtimeToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// storeErr tags a driver failure as transient so callers can tell it apart
// from a lookup miss. Integrity violations (SQLSTATE class 23) are rejected
// data, not outages, and are tagged as invalid input instead.
func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%s: %w: %s: %w", op, domain.ErrInvalidInput, pgErr.ConstraintName, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrDataStoreUnavailable, err)
}
