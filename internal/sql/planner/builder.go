package planner

import (
	"fmt"

	"github.com/ovidtal/reldb/internal/catalog"
	"github.com/ovidtal/reldb/internal/predicate"
	"github.com/ovidtal/reldb/internal/record"
	"github.com/ovidtal/reldb/internal/sql/parser"
	"github.com/ovidtal/reldb/internal/value"
)

// SchemaResolver resolves a table name to its catalog entry. *catalog.Catalog
// satisfies this directly.
type SchemaResolver interface {
	LookupTable(name string) (*catalog.TableDef, error)
}

// BuildPlan lowers stmt into a Plan, resolving column types via resolver.
// Database-level statements (CREATE/DROP/USE/SHOW DATABASE) need no
// resolution and are lowered unconditionally.
func BuildPlan(stmt parser.Statement, resolver SchemaResolver) (Plan, error) {
	switch s := stmt.(type) {
	case *parser.CreateDatabaseStmt:
		return &CreateDatabasePlan{Name: s.Name}, nil
	case *parser.DropDatabaseStmt:
		return &DropDatabasePlan{Name: s.Name}, nil
	case *parser.UseDatabaseStmt:
		return &UseDatabasePlan{Name: s.Name}, nil
	case *parser.ShowDatabasesStmt:
		return &ShowDatabasesPlan{}, nil
	case *parser.ShowTablesStmt:
		return &ShowTablesPlan{}, nil
	case *parser.CreateTableStmt:
		return buildCreateTablePlan(s)
	case *parser.DropTableStmt:
		return &DropTablePlan{TableName: s.TableName}, nil
	case *parser.InsertStmt:
		return buildInsertPlan(s, resolver)
	case *parser.SelectStmt:
		return buildSelectPlan(s, resolver)
	case *parser.UpdateStmt:
		return buildUpdatePlan(s, resolver)
	case *parser.DeleteStmt:
		return buildDeletePlan(s, resolver)
	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func buildCreateTablePlan(s *parser.CreateTableStmt) (Plan, error) {
	cols := make([]record.Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		kind, err := mapColumnKind(c.Type)
		if err != nil {
			return nil, err
		}
		cols = append(cols, record.Column{
			Name:       c.Name,
			Kind:       kind,
			Length:     c.Length,
			PrimaryKey: c.PrimaryKey,
			ForeignKey: c.RefTable != "",
			RefTable:   c.RefTable,
			RefColumn:  c.RefColumn,
		})
	}

	schema := record.Schema{Table: s.TableName, Columns: cols}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &CreateTablePlan{Schema: schema}, nil
}

func mapColumnKind(t string) (value.Kind, error) {
	switch t {
	case "INT":
		return value.KindInt, nil
	case "FLOAT":
		return value.KindFloat, nil
	case "STRING":
		return value.KindString, nil
	case "CHAR":
		return value.KindChar, nil
	case "BOOL":
		return value.KindBool, nil
	default:
		return 0, fmt.Errorf("planner: unsupported column type %q", t)
	}
}

// buildInsertPlan matches VALUES positionally against schema column order
// (the grammar carries no column list); missing trailing values default to
// the column's typed zero, per §3 "Record".
func buildInsertPlan(s *parser.InsertStmt, resolver SchemaResolver) (Plan, error) {
	def, err := resolver.LookupTable(s.TableName)
	if err != nil {
		return nil, err
	}
	schema := def.Schema
	if len(s.Values) > len(schema.Columns) {
		return nil, fmt.Errorf("planner: INSERT has more values than columns for table %s", s.TableName)
	}

	row := make(record.Row, len(schema.Columns))
	for i, col := range schema.Columns {
		if i >= len(s.Values) {
			row[col.Name] = value.Zero(col.Kind)
			continue
		}
		lit, ok := s.Values[i].(*parser.LiteralExpr)
		if !ok {
			return nil, fmt.Errorf("planner: only literal expressions supported in INSERT")
		}
		v, err := coerceLiteral(lit.Value, col.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s", err, col.Name)
		}
		row[col.Name] = v
	}
	return &InsertPlan{TableName: s.TableName, Row: row}, nil
}

func buildSelectPlan(s *parser.SelectStmt, resolver SchemaResolver) (Plan, error) {
	def, err := resolver.LookupTable(s.TableName)
	if err != nil {
		return nil, err
	}
	schema := def.Schema

	if s.Join != nil {
		return buildJoinPlan(s, schema, resolver)
	}

	pred, err := lowerWhere(s.Where, schema)
	if err != nil {
		return nil, err
	}
	cols := projectionColumns(s.Star, s.Columns)

	if pk, _, ok := schema.PrimaryKey(); ok && canUseIndexFastPath(pred) {
		first := pred.Conditions[0]
		if first.Column == pk.Name && first.Op == value.OpEq && first.Value.Kind == value.KindInt {
			return &IndexLookupPlan{
				TableName: s.TableName,
				Key:       first.Value.Int,
				Where:     pred,
				Columns:   cols,
			}, nil
		}
	}

	return &SeqScanPlan{TableName: s.TableName, Where: pred, Columns: cols}, nil
}

// canUseIndexFastPath restricts §4.5's fast path to predicates the index
// alone can decide: a plain conjunction (no OR, no leading NOT negating the
// very first condition) starting at a PK equality. OR requires evaluating
// rows the lookup would never visit, so it always falls back to SeqScanPlan.
func canUseIndexFastPath(pred predicate.Predicate) bool {
	if len(pred.Conditions) == 0 {
		return false
	}
	for i, op := range pred.Operators {
		if op == predicate.Or {
			return false
		}
		if op == predicate.Not && i == 0 {
			return false
		}
	}
	return true
}

func buildJoinPlan(s *parser.SelectStmt, leftSchema record.Schema, resolver SchemaResolver) (Plan, error) {
	rightDef, err := resolver.LookupTable(s.Join.TableName)
	if err != nil {
		return nil, err
	}
	rightSchema := rightDef.Schema

	leftCol, rightCol, err := resolveJoinColumns(s.Join, s.TableName, leftSchema, rightSchema)
	if err != nil {
		return nil, err
	}

	pred, err := lowerJoinWhere(s.Where, s.TableName, leftSchema, s.Join.TableName, rightSchema)
	if err != nil {
		return nil, err
	}

	return &JoinScanPlan{
		LeftTable:  s.TableName,
		RightTable: s.Join.TableName,
		LeftCol:    leftCol,
		RightCol:   rightCol,
		Where:      pred,
		Columns:    projectionColumns(s.Star, s.Columns),
	}, nil
}

func resolveJoinColumns(j *parser.JoinClause, leftName string, leftSchema, rightSchema record.Schema) (string, string, error) {
	a, b := j.LeftCol, j.RightCol
	if a.Table == "" || b.Table == "" {
		return "", "", fmt.Errorf("planner: JOIN ON requires qualified columns")
	}

	switch {
	case a.Table == leftName && b.Table == j.TableName:
		if _, _, ok := leftSchema.ColumnByName(a.Column); !ok {
			return "", "", fmt.Errorf("planner: unknown column %s.%s", a.Table, a.Column)
		}
		if _, _, ok := rightSchema.ColumnByName(b.Column); !ok {
			return "", "", fmt.Errorf("planner: unknown column %s.%s", b.Table, b.Column)
		}
		return a.Column, b.Column, nil
	case a.Table == j.TableName && b.Table == leftName:
		if _, _, ok := rightSchema.ColumnByName(a.Column); !ok {
			return "", "", fmt.Errorf("planner: unknown column %s.%s", a.Table, a.Column)
		}
		if _, _, ok := leftSchema.ColumnByName(b.Column); !ok {
			return "", "", fmt.Errorf("planner: unknown column %s.%s", b.Table, b.Column)
		}
		return b.Column, a.Column, nil
	default:
		return "", "", fmt.Errorf("planner: JOIN ON columns must reference %s and %s", leftName, j.TableName)
	}
}

func buildUpdatePlan(s *parser.UpdateStmt, resolver SchemaResolver) (Plan, error) {
	def, err := resolver.LookupTable(s.TableName)
	if err != nil {
		return nil, err
	}
	schema := def.Schema

	sets := make(record.Row, len(s.Assignments))
	for _, a := range s.Assignments {
		col, _, ok := schema.ColumnByName(a.Column)
		if !ok {
			return nil, fmt.Errorf("planner: unknown column %s in SET", a.Column)
		}
		v, err := coerceLiteral(a.Value.Value, col.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s", err, a.Column)
		}
		sets[a.Column] = v
	}

	pred, err := lowerWhere(s.Where, schema)
	if err != nil {
		return nil, err
	}
	return &UpdatePlan{TableName: s.TableName, Sets: sets, Where: pred}, nil
}

func buildDeletePlan(s *parser.DeleteStmt, resolver SchemaResolver) (Plan, error) {
	def, err := resolver.LookupTable(s.TableName)
	if err != nil {
		return nil, err
	}
	pred, err := lowerWhere(s.Where, def.Schema)
	if err != nil {
		return nil, err
	}
	return &DeletePlan{TableName: s.TableName, Where: pred}, nil
}

// lowerWhere resolves a single-table WHERE clause's columns and literals
// against schema, producing an evaluator-ready predicate.Predicate. A
// literal that cannot be coerced to its column's kind keeps its own kind,
// so the condition compares mismatched tags and matches no row.
func lowerWhere(w *parser.Where, schema record.Schema) (predicate.Predicate, error) {
	if w == nil {
		return predicate.Predicate{}, nil
	}

	conds := make([]predicate.Condition, 0, len(w.Conditions))
	for _, c := range w.Conditions {
		if c.Column.Table != "" && c.Column.Table != schema.Table {
			return predicate.Predicate{}, fmt.Errorf("planner: unknown table qualifier %s", c.Column.Table)
		}
		col, _, ok := schema.ColumnByName(c.Column.Column)
		if !ok {
			return predicate.Predicate{}, fmt.Errorf("planner: unknown column %s", c.Column.Column)
		}
		op, ok := value.ParseOp(c.Op)
		if !ok {
			return predicate.Predicate{}, fmt.Errorf("planner: unsupported operator %q", c.Op)
		}
		v, err := coerceLiteral(c.Value.Value, col.Kind)
		if err != nil {
			switch lit := c.Value.Value.(type) {
			case int32:
				v = value.Int(lit)
			case float32:
				v = value.Float(lit)
			case string:
				v = value.String(lit)
			case bool:
				v = value.Bool(lit)
			default:
				return predicate.Predicate{}, fmt.Errorf("%w: column %s", err, col.Name)
			}
		}
		conds = append(conds, predicate.Condition{Column: col.Name, Op: op, Value: v})
	}
	return predicate.Predicate{Conditions: conds, Operators: w.Operators}, nil
}

// lowerJoinWhere is lowerWhere generalized to two schemas: a qualified
// column resolves against its named table, an unqualified one resolves
// against the left table first, then the right (§4.7 "left-table
// precedence"). The resulting predicate.Condition keys match how the
// executor builds its combined row.
func lowerJoinWhere(w *parser.Where, leftName string, leftSchema record.Schema, rightName string, rightSchema record.Schema) (predicate.Predicate, error) {
	if w == nil {
		return predicate.Predicate{}, nil
	}

	conds := make([]predicate.Condition, 0, len(w.Conditions))
	for _, c := range w.Conditions {
		key, kind, err := resolveJoinColumn(c.Column, leftName, leftSchema, rightName, rightSchema)
		if err != nil {
			return predicate.Predicate{}, err
		}
		op, ok := value.ParseOp(c.Op)
		if !ok {
			return predicate.Predicate{}, fmt.Errorf("planner: unsupported operator %q", c.Op)
		}
		v, err := coerceLiteral(c.Value.Value, kind)
		if err != nil {
			return predicate.Predicate{}, fmt.Errorf("%w: column %s", err, key)
		}
		conds = append(conds, predicate.Condition{Column: key, Op: op, Value: v})
	}
	return predicate.Predicate{Conditions: conds, Operators: w.Operators}, nil
}

func resolveJoinColumn(qc parser.QualifiedColumn, leftName string, leftSchema record.Schema, rightName string, rightSchema record.Schema) (string, value.Kind, error) {
	if qc.Table != "" {
		switch qc.Table {
		case leftName:
			col, _, ok := leftSchema.ColumnByName(qc.Column)
			if !ok {
				return "", 0, fmt.Errorf("planner: unknown column %s", qc)
			}
			return qc.String(), col.Kind, nil
		case rightName:
			col, _, ok := rightSchema.ColumnByName(qc.Column)
			if !ok {
				return "", 0, fmt.Errorf("planner: unknown column %s", qc)
			}
			return qc.String(), col.Kind, nil
		default:
			return "", 0, fmt.Errorf("planner: unknown table qualifier %s", qc.Table)
		}
	}

	if col, _, ok := leftSchema.ColumnByName(qc.Column); ok {
		return qc.Column, col.Kind, nil
	}
	if col, _, ok := rightSchema.ColumnByName(qc.Column); ok {
		return qc.Column, col.Kind, nil
	}
	return "", 0, fmt.Errorf("planner: unknown column %s", qc.Column)
}

func projectionColumns(star bool, cols []parser.QualifiedColumn) []string {
	if star {
		return nil
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.String()
	}
	return out
}

// coerceLiteral converts a parser literal (int32/float32/string/bool, per
// parser.parseLiteral) into a value.Value of kind. Bare 1/0 coerce to BOOL,
// per §6 "booleans accept true|TRUE|1 / false|FALSE|0".
func coerceLiteral(lit any, kind value.Kind) (value.Value, error) {
	switch kind {
	case value.KindInt:
		if v, ok := lit.(int32); ok {
			return value.Int(v), nil
		}
	case value.KindFloat:
		switch v := lit.(type) {
		case float32:
			return value.Float(v), nil
		case int32:
			return value.Float(float32(v)), nil
		}
	case value.KindString:
		if v, ok := lit.(string); ok {
			return value.String(v), nil
		}
	case value.KindChar:
		if v, ok := lit.(string); ok {
			return value.Char(v), nil
		}
	case value.KindBool:
		switch v := lit.(type) {
		case bool:
			return value.Bool(v), nil
		case int32:
			return value.Bool(v != 0), nil
		}
	}
	return value.Value{}, fmt.Errorf("%w: %v is not a valid %v literal", ErrLiteralTypeMismatch, lit, kind)
}
