package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidtal/reldb/internal/predicate"
)

func TestParse_CreateDatabase(t *testing.T) {
	stmt, err := Parse("CREATE DATABASE d;")
	require.NoError(t, err)
	require.Equal(t, &CreateDatabaseStmt{Name: "d"}, stmt)
}

func TestParse_CreateTableWithPrimaryKeyAndLengths(t *testing.T) {
	stmt, err := Parse("CREATE TABLE u (id INT PRIMARY KEY, name STRING(16), tag CHAR(4), score FLOAT, active BOOL);")
	require.NoError(t, err)

	ct, ok := stmt.(*CreateTableStmt)
	require.True(t, ok)
	require.Equal(t, "u", ct.TableName)
	require.Len(t, ct.Columns, 5)
	require.Equal(t, ColumnDef{Name: "id", Type: "INT", PrimaryKey: true}, ct.Columns[0])
	require.Equal(t, ColumnDef{Name: "name", Type: "STRING", Length: 16}, ct.Columns[1])
	require.Equal(t, ColumnDef{Name: "tag", Type: "CHAR", Length: 4}, ct.Columns[2])
}

func TestParse_CreateTableWithForeignKey(t *testing.T) {
	stmt, err := Parse("CREATE TABLE orders (oid INT PRIMARY KEY, uid INT REFERENCES users(id));")
	require.NoError(t, err)
	ct := stmt.(*CreateTableStmt)
	require.Equal(t, "users", ct.Columns[1].RefTable)
	require.Equal(t, "id", ct.Columns[1].RefColumn)
}

func TestParse_InsertValues(t *testing.T) {
	stmt, err := Parse("INSERT INTO u VALUES (1, 'alice', true);")
	require.NoError(t, err)
	ins := stmt.(*InsertStmt)
	require.Equal(t, "u", ins.TableName)
	require.Equal(t, []Expr{
		&LiteralExpr{Value: int32(1)},
		&LiteralExpr{Value: "alice"},
		&LiteralExpr{Value: true},
	}, ins.Values)
}

func TestParse_SelectStarWithWhere(t *testing.T) {
	stmt, err := Parse("SELECT * FROM u WHERE id = 2;")
	require.NoError(t, err)
	sel := stmt.(*SelectStmt)
	require.True(t, sel.Star)
	require.Equal(t, "u", sel.TableName)
	require.NotNil(t, sel.Where)
	require.Len(t, sel.Where.Conditions, 1)
	require.Equal(t, QualifiedColumn{Column: "id"}, sel.Where.Conditions[0].Column)
	require.Equal(t, "=", sel.Where.Conditions[0].Op)
}

func TestParse_SelectWithJoinAndQualifiedColumns(t *testing.T) {
	stmt, err := Parse("SELECT users.name, orders.amt FROM users JOIN orders ON users.id = orders.uid WHERE orders.amt > 5;")
	require.NoError(t, err)
	sel := stmt.(*SelectStmt)
	require.False(t, sel.Star)
	require.Equal(t, []QualifiedColumn{
		{Table: "users", Column: "name"},
		{Table: "orders", Column: "amt"},
	}, sel.Columns)
	require.NotNil(t, sel.Join)
	require.Equal(t, "orders", sel.Join.TableName)
	require.Equal(t, QualifiedColumn{Table: "users", Column: "id"}, sel.Join.LeftCol)
	require.Equal(t, QualifiedColumn{Table: "orders", Column: "uid"}, sel.Join.RightCol)
	require.Equal(t, ">", sel.Where.Conditions[0].Op)
}

func TestParse_WhereWithAndOrNot(t *testing.T) {
	stmt, err := Parse("SELECT * FROM u WHERE id = 1 AND name = 'a' OR name = 'b';")
	require.NoError(t, err)
	sel := stmt.(*SelectStmt)
	require.Len(t, sel.Where.Conditions, 3)
	require.Equal(t, []predicate.LogicalOp{predicate.And, predicate.Or}, sel.Where.Operators)
}

func TestParse_WhereLeadingNot(t *testing.T) {
	stmt, err := Parse("SELECT * FROM u WHERE NOT id = 1 AND name = 'a';")
	require.NoError(t, err)
	sel := stmt.(*SelectStmt)
	require.Equal(t, []predicate.LogicalOp{predicate.Not, predicate.And}, sel.Where.Operators)
}

func TestParse_UpdateSetWithWhere(t *testing.T) {
	stmt, err := Parse("UPDATE u SET name = 'carol' WHERE id = 1;")
	require.NoError(t, err)
	upd := stmt.(*UpdateStmt)
	require.Equal(t, "u", upd.TableName)
	require.Equal(t, []Assignment{{Column: "name", Value: &LiteralExpr{Value: "carol"}}}, upd.Assignments)
	require.NotNil(t, upd.Where)
}

func TestParse_DeleteWithWhere(t *testing.T) {
	stmt, err := Parse("DELETE FROM u WHERE id = 2;")
	require.NoError(t, err)
	del := stmt.(*DeleteStmt)
	require.Equal(t, "u", del.TableName)
	require.NotNil(t, del.Where)
}

func TestParse_ShowDatabasesAndTables(t *testing.T) {
	stmt, err := Parse("SHOW DATABASES;")
	require.NoError(t, err)
	require.IsType(t, &ShowDatabasesStmt{}, stmt)

	stmt, err = Parse("SHOW TABLES;")
	require.NoError(t, err)
	require.IsType(t, &ShowTablesStmt{}, stmt)
}

func TestParse_MissingTerminatorIsRejected(t *testing.T) {
	_, err := Parse("SELECT * FROM u")
	require.Error(t, err)
}

// Scenario 7: two conditions with zero operators is rejected at parse time.
func TestParse_OperatorCountRejection(t *testing.T) {
	_, err := Parse("SELECT * FROM u WHERE id = 1 name = 'a';")
	require.Error(t, err)
}

func TestParse_OperatorCountRejectionTooManyOperators(t *testing.T) {
	_, err := Parse("SELECT * FROM u WHERE id = 1 AND OR name = 'a';")
	require.Error(t, err)
}
