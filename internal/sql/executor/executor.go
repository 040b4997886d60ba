// Package executor dispatches planner.Plan nodes against the engine: table
// store reads/writes, predicate evaluation, and the nested-loop join.
package executor

import (
	"fmt"

	"github.com/ovidtal/reldb/internal/engine"
	"github.com/ovidtal/reldb/internal/predicate"
	"github.com/ovidtal/reldb/internal/record"
	"github.com/ovidtal/reldb/internal/sql/parser"
	"github.com/ovidtal/reldb/internal/sql/planner"
	"github.com/ovidtal/reldb/internal/value"
)

// Result is the generic query result returned to the caller (§6 "Exit
// codes / return semantics").
type Result struct {
	Columns      []string
	Rows         [][]any
	AffectedRows int64
}

// Executor executes SQL text against an engine.Engine.
type Executor struct {
	Engine *engine.Engine
}

func New(e *engine.Engine) *Executor {
	return &Executor{Engine: e}
}

// ExecSQL is the top-level entry: SQL text -> Result.
func (e *Executor) ExecSQL(sql string) (*Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	plan, err := planner.BuildPlan(stmt, e.Engine.Catalog)
	if err != nil {
		return nil, err
	}
	return e.execPlan(plan)
}

func (e *Executor) execPlan(p planner.Plan) (*Result, error) {
	switch plan := p.(type) {
	case *planner.CreateDatabasePlan:
		return e.execCreateDatabase(plan)
	case *planner.DropDatabasePlan:
		return e.execDropDatabase(plan)
	case *planner.UseDatabasePlan:
		return e.execUseDatabase(plan)
	case *planner.ShowDatabasesPlan:
		return e.execShowDatabases()
	case *planner.ShowTablesPlan:
		return e.execShowTables()
	case *planner.CreateTablePlan:
		return e.execCreateTable(plan)
	case *planner.DropTablePlan:
		return e.execDropTable(plan)
	case *planner.InsertPlan:
		return e.execInsert(plan)
	case *planner.IndexLookupPlan:
		return e.execIndexLookup(plan)
	case *planner.SeqScanPlan:
		return e.execSeqScan(plan)
	case *planner.JoinScanPlan:
		return e.execJoinScan(plan)
	case *planner.UpdatePlan:
		return e.execUpdate(plan)
	case *planner.DeletePlan:
		return e.execDelete(plan)
	default:
		return nil, fmt.Errorf("executor: unsupported plan type %T", p)
	}
}

func (e *Executor) execCreateDatabase(p *planner.CreateDatabasePlan) (*Result, error) {
	if err := e.Engine.CreateDatabase(p.Name); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execDropDatabase(p *planner.DropDatabasePlan) (*Result, error) {
	if err := e.Engine.DropDatabase(p.Name); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execUseDatabase(p *planner.UseDatabasePlan) (*Result, error) {
	if err := e.Engine.UseDatabase(p.Name); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execShowDatabases() (*Result, error) {
	res := &Result{Columns: []string{"name"}}
	for _, name := range e.Engine.ListDatabases() {
		res.Rows = append(res.Rows, []any{name})
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

func (e *Executor) execShowTables() (*Result, error) {
	names, err := e.Engine.ListTables()
	if err != nil {
		return nil, err
	}
	res := &Result{Columns: []string{"name"}}
	for _, name := range names {
		res.Rows = append(res.Rows, []any{name})
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

func (e *Executor) execCreateTable(p *planner.CreateTablePlan) (*Result, error) {
	if err := e.Engine.CreateTable(p.Schema); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execDropTable(p *planner.DropTablePlan) (*Result, error) {
	if err := e.Engine.DropTable(p.TableName); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execInsert(p *planner.InsertPlan) (*Result, error) {
	tbl, err := e.Engine.Table(p.TableName)
	if err != nil {
		return nil, err
	}
	if err := tbl.Insert(p.Row); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: 1}, nil
}

func (e *Executor) execSeqScan(p *planner.SeqScanPlan) (*Result, error) {
	tbl, err := e.Engine.Table(p.TableName)
	if err != nil {
		return nil, err
	}

	cols := p.Columns
	if cols == nil {
		cols = columnNames(tbl.Schema)
	}

	res := &Result{Columns: cols}
	err = tbl.Scan(func(_ uint32, row record.Row) error {
		ok, err := p.Where.Evaluate(predicate.Row(row))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		res.Rows = append(res.Rows, projectRow(row, cols))
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

// execIndexLookup is §4.5's primary-key fast path. It re-evaluates the full
// WHERE predicate against every hit, so a stale index entry left over from a
// crashed rewrite can never surface a row that no longer matches.
func (e *Executor) execIndexLookup(p *planner.IndexLookupPlan) (*Result, error) {
	tbl, err := e.Engine.Table(p.TableName)
	if err != nil {
		return nil, err
	}

	cols := p.Columns
	if cols == nil {
		cols = columnNames(tbl.Schema)
	}

	rows, err := tbl.Lookup(p.Key)
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: cols}
	for _, row := range rows {
		ok, err := p.Where.Evaluate(predicate.Row(row))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		res.Rows = append(res.Rows, projectRow(row, cols))
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

// execJoinScan is §4.7's nested-loop join: every row of the left table is
// paired with every row of the right table, the combined row carries both
// "table.col" and (left-precedence) bare keys, and WHERE/projection run
// against that combined row.
func (e *Executor) execJoinScan(p *planner.JoinScanPlan) (*Result, error) {
	left, err := e.Engine.Table(p.LeftTable)
	if err != nil {
		return nil, err
	}
	right, err := e.Engine.Table(p.RightTable)
	if err != nil {
		return nil, err
	}

	var leftRows, rightRows []record.Row
	if err := left.Scan(func(_ uint32, row record.Row) error {
		leftRows = append(leftRows, row)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := right.Scan(func(_ uint32, row record.Row) error {
		rightRows = append(rightRows, row)
		return nil
	}); err != nil {
		return nil, err
	}

	cols := p.Columns
	if cols == nil {
		cols = append(qualifiedColumnNames(left.Schema, p.LeftTable), qualifiedColumnNames(right.Schema, p.RightTable)...)
	}

	res := &Result{Columns: cols}
	for _, lr := range leftRows {
		lk, ok := lr[p.LeftCol]
		if !ok {
			continue
		}
		for _, rr := range rightRows {
			rk, ok := rr[p.RightCol]
			if !ok {
				continue
			}
			eq, err := value.Compare(lk, rk, value.OpEq)
			if err != nil {
				return nil, err
			}
			if !eq {
				continue
			}

			combined := combineRows(p.LeftTable, lr, p.RightTable, rr)
			match, err := p.Where.Evaluate(predicate.Row(combined))
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
			res.Rows = append(res.Rows, projectRow(combined, cols))
		}
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

func (e *Executor) execUpdate(p *planner.UpdatePlan) (*Result, error) {
	tbl, err := e.Engine.Table(p.TableName)
	if err != nil {
		return nil, err
	}

	n, err := tbl.Update(func(row record.Row) (bool, error) {
		return p.Where.Evaluate(predicate.Row(row))
	}, p.Sets)
	if err != nil {
		return nil, err
	}
	return &Result{AffectedRows: n}, nil
}

func (e *Executor) execDelete(p *planner.DeletePlan) (*Result, error) {
	tbl, err := e.Engine.Table(p.TableName)
	if err != nil {
		return nil, err
	}

	n, err := tbl.Delete(func(row record.Row) (bool, error) {
		return p.Where.Evaluate(predicate.Row(row))
	})
	if err != nil {
		return nil, err
	}
	return &Result{AffectedRows: n}, nil
}

func columnNames(schema record.Schema) []string {
	out := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		out[i] = c.Name
	}
	return out
}

func qualifiedColumnNames(schema record.Schema, table string) []string {
	out := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		out[i] = table + "." + c.Name
	}
	return out
}

func combineRows(leftTable string, lr record.Row, rightTable string, rr record.Row) record.Row {
	combined := make(record.Row, len(lr)+len(rr))
	for k, v := range lr {
		combined[leftTable+"."+k] = v
		combined[k] = v
	}
	for k, v := range rr {
		combined[rightTable+"."+k] = v
		if _, exists := combined[k]; !exists {
			combined[k] = v
		}
	}
	return combined
}

func projectRow(row record.Row, cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		v, ok := row[c]
		if !ok {
			continue
		}
		out[i] = valueToAny(v)
	}
	return out
}

func valueToAny(v value.Value) any {
	switch v.Kind {
	case value.KindInt:
		return v.Int
	case value.KindFloat:
		return v.Float
	case value.KindString, value.KindChar:
		return v.Str
	case value.KindBool:
		return v.Bool
	default:
		return nil
	}
}
