package pgrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/logger"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type calculationLogRepository struct {
	db *pgxpool.Pool
}

func NewCalculationLogRepository(db *pgxpool.Pool) domain.CalculationLogRepository {
	return &calculationLogRepository{db: db}
}

// Append inserts one audit row. Identical calculations get separate rows.
func (r *calculationLogRepository) Append(ctx context.Context, entry *domain.CalculationLogEntry) (*domain.CalculationLogEntry, error) {
	query := `INSERT INTO shipping_calculation_logs
			(product_id, destination_zone_id, used_policy_id, computed_cost)
		VALUES ($1, $2, $3, $4)
		RETURNING id, calculation_time`

	var (
		id      int64
		created pgtype.Timestamptz
	)
	start := time.Now()
	err := dbFromContext(ctx, r.db).QueryRow(ctx, query,
		entry.ProductID, entry.DestinationZoneID, entry.UsedPolicyID, decimalToNumeric(entry.ComputedCost),
	).Scan(&id, &created)
	logger.DBQuery(ctx, "AppendCalculationLog", time.Since(start), err)
	if err != nil {
		return nil, storeErr("append calculation log", err)
	}

	out := *entry
	out.ID = id
	out.CalculationTime = pgtimeToTime(created)
	return &out, nil
}

// buildLogFilter renders the WHERE clause with positional parameters only.
func buildLogFilter(f domain.CalculationLogFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.ZoneID != 0 {
		add("destination_zone_id = $%d", f.ZoneID)
	}
	if f.PolicyID != 0 {
		add("used_policy_id = $%d", f.PolicyID)
	}
	if !f.From.IsZero() {
		add("calculation_time >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("calculation_time < $%d", f.To)
	}
	if f.BeforeID > 0 {
		args = append(args, f.BeforeTime, f.BeforeID)
		conds = append(conds, fmt.Sprintf("(calculation_time, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *calculationLogRepository) List(ctx context.Context, filter domain.CalculationLogFilter) ([]domain.CalculationLogEntry, int64, error) {
	where, args := buildLogFilter(filter)
	db := dbFromContext(ctx, r.db)

	var total int64
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM shipping_calculation_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count calculation logs", err)
	}
	if total == 0 {
		return []domain.CalculationLogEntry{}, 0, nil
	}

	query := `SELECT id, product_id, destination_zone_id, used_policy_id, computed_cost, calculation_time
		FROM shipping_calculation_logs` + where + fmt.Sprintf(
		" ORDER BY calculation_time DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	start := time.Now()
	rows, err := db.Query(ctx, query, args...)
	logger.DBQuery(ctx, "ListCalculationLogs", time.Since(start), err)
	if err != nil {
		return nil, 0, storeErr("list calculation logs", err)
	}
	defer rows.Close()

	result := make([]domain.CalculationLogEntry, 0, filter.Limit)
	for rows.Next() {
		var (
			e       domain.CalculationLogEntry
			cost    pgtype.Numeric
			created pgtype.Timestamptz
		)
		if err := rows.Scan(&e.ID, &e.ProductID, &e.DestinationZoneID, &e.UsedPolicyID, &cost, &created); err != nil {
			return nil, 0, storeErr("scan calculation log", err)
		}
		e.ComputedCost = numericToDecimal(cost)
		e.CalculationTime = pgtimeToTime(created)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr("list calculation logs", err)
	}
	return result, total, nil
}
