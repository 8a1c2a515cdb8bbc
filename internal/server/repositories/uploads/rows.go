package uploads

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/equipview/internal/dbx"
	"github.com/dmitrijs2005/equipview/internal/equipment"
)

// Rows are inserted in multi-row statements of at most rowBatch tuples.
const (
	rowBatch   = 100
	rowColumns = 8
)

func rowArgs(uploadID string, r equipment.Row) []any {
	return []any{
		uploadID,
		r.Position,
		dbx.NullString(r.Name),
		dbx.NullString(r.Type),
		dbx.NullFloat64(r.Flowrate),
		dbx.NullFloat64(r.Pressure),
		dbx.NullFloat64(r.Temperature),
		r.Complete(),
	}
}

func insertRowsQuery(n int, placeholder func(i int) string) string {
	var b strings.Builder
	b.WriteString(`INSERT INTO upload_rows (upload_id, position, equipment_name, equipment_type, flowrate, pressure, temperature, complete) VALUES `)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < rowColumns; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(placeholder(i*rowColumns + j + 1))
		}
		b.WriteByte(')')
	}
	return b.String()
}

func insertRows(ctx context.Context, db dbx.DBTX, uploadID string, rows []equipment.Row, placeholder func(int) string) error {
	for start := 0; start < len(rows); start += rowBatch {
		end := min(start+rowBatch, len(rows))
		args := make([]any, 0, (end-start)*rowColumns)
		for _, r := range rows[start:end] {
			args = append(args, rowArgs(uploadID, r)...)
		}
		if _, err := db.ExecContext(ctx, insertRowsQuery(end-start, placeholder), args...); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func selectRows(ctx context.Context, db dbx.DBTX, query, uploadID string) ([]equipment.Row, error) {
	rs, err := db.QueryContext(ctx, query, uploadID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rs.Close()

	out := []equipment.Row{}
	for rs.Next() {
		var (
			r          equipment.Row
			name, typ  sql.NullString
			flow, pres sql.NullFloat64
			temp       sql.NullFloat64
		)
		if err := rs.Scan(&r.Position, &name, &typ, &flow, &pres, &temp); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		r.Name = dbx.StringPtr(name)
		r.Type = dbx.StringPtr(typ)
		r.Flowrate = dbx.FloatPtr(flow)
		r.Pressure = dbx.FloatPtr(pres)
		r.Temperature = dbx.FloatPtr(temp)
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// summaryColumns mirrors the summary columns of the uploads table.
type summaryColumns struct {
	rowCount, totalCount, incompleteCount int
	flow, pres, temp                      sql.NullFloat64
	distribution                          []byte
}

func (c *summaryColumns) dest() []any {
	return []any{&c.rowCount, &c.totalCount, &c.incompleteCount, &c.flow, &c.pres, &c.temp, &c.distribution}
}

func (c *summaryColumns) summary() (equipment.Summary, error) {
	s := equipment.Summary{
		RowCount:        c.rowCount,
		TotalCount:      c.totalCount,
		IncompleteCount: c.incompleteCount,
		Averages: equipment.Averages{
			Flowrate:    dbx.FloatPtr(c.flow),
			Pressure:    dbx.FloatPtr(c.pres),
			Temperature: dbx.FloatPtr(c.temp),
		},
		TypeDistribution: map[string]int{},
	}
	if len(c.distribution) > 0 {
		if err := json.Unmarshal(c.distribution, &s.TypeDistribution); err != nil {
			return s, fmt.Errorf("decode type distribution: %w", err)
		}
	}
	return s, nil
}

func summaryArgs(s equipment.Summary) ([]any, error) {
	dist := s.TypeDistribution
	if dist == nil {
		dist = map[string]int{}
	}
	b, err := json.Marshal(dist)
	if err != nil {
		return nil, fmt.Errorf("encode type distribution: %w", err)
	}
	return []any{
		s.RowCount,
		s.TotalCount,
		s.IncompleteCount,
		dbx.NullFloat64(s.Averages.Flowrate),
		dbx.NullFloat64(s.Averages.Pressure),
		dbx.NullFloat64(s.Averages.Temperature),
		string(b),
	}, nil
}
