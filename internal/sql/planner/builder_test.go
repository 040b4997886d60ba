package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidtal/reldb/internal/catalog"
	"github.com/ovidtal/reldb/internal/record"
	"github.com/ovidtal/reldb/internal/sql/parser"
	"github.com/ovidtal/reldb/internal/value"
)

type fakeResolver map[string]*catalog.TableDef

func (f fakeResolver) LookupTable(name string) (*catalog.TableDef, error) {
	def, ok := f[name]
	if !ok {
		return nil, catalog.ErrTableNotFound
	}
	return def, nil
}

func usersSchema() record.Schema {
	return record.Schema{
		Table: "users",
		Columns: []record.Column{
			{Name: "id", Kind: value.KindInt, PrimaryKey: true},
			{Name: "name", Kind: value.KindString, Length: 8},
		},
	}
}

func ordersSchema() record.Schema {
	return record.Schema{
		Table: "orders",
		Columns: []record.Column{
			{Name: "oid", Kind: value.KindInt, PrimaryKey: true},
			{Name: "uid", Kind: value.KindInt},
			{Name: "amt", Kind: value.KindInt},
		},
	}
}

func testResolver() fakeResolver {
	return fakeResolver{
		"users":  {Schema: usersSchema()},
		"orders": {Schema: ordersSchema()},
	}
}

func TestBuildPlan_CreateTable(t *testing.T) {
	stmt, err := parser.Parse("CREATE TABLE u (id INT PRIMARY KEY, name STRING(16));")
	require.NoError(t, err)

	plan, err := BuildPlan(stmt, testResolver())
	require.NoError(t, err)
	ct := plan.(*CreateTablePlan)
	require.Equal(t, "u", ct.Schema.Table)
	require.Len(t, ct.Schema.Columns, 2)
}

func TestBuildPlan_InsertFillsMissingWithZero(t *testing.T) {
	stmt, err := parser.Parse("INSERT INTO users VALUES (1);")
	require.NoError(t, err)

	plan, err := BuildPlan(stmt, testResolver())
	require.NoError(t, err)
	ins := plan.(*InsertPlan)
	require.Equal(t, value.Int(1), ins.Row["id"])
	require.Equal(t, value.String(""), ins.Row["name"])
}

func TestBuildPlan_SelectPrimaryKeyUsesIndexLookup(t *testing.T) {
	stmt, err := parser.Parse("SELECT * FROM users WHERE id = 2;")
	require.NoError(t, err)

	plan, err := BuildPlan(stmt, testResolver())
	require.NoError(t, err)
	lookup := plan.(*IndexLookupPlan)
	require.Equal(t, int32(2), lookup.Key)
}

func TestBuildPlan_SelectNonPrimaryKeyUsesSeqScan(t *testing.T) {
	stmt, err := parser.Parse("SELECT id FROM users WHERE name = 'alice';")
	require.NoError(t, err)

	plan, err := BuildPlan(stmt, testResolver())
	require.NoError(t, err)
	scan := plan.(*SeqScanPlan)
	require.Equal(t, []string{"id"}, scan.Columns)
	require.Equal(t, value.String("alice"), scan.Where.Conditions[0].Value)
}

func TestBuildPlan_SelectPrimaryKeyWithORFallsBackToSeqScan(t *testing.T) {
	stmt, err := parser.Parse("SELECT * FROM users WHERE id = 1 OR name = 'bob';")
	require.NoError(t, err)

	plan, err := BuildPlan(stmt, testResolver())
	require.NoError(t, err)
	require.IsType(t, &SeqScanPlan{}, plan)
}

func TestBuildPlan_Join(t *testing.T) {
	stmt, err := parser.Parse(
		"SELECT users.name, orders.amt FROM users JOIN orders ON users.id = orders.uid WHERE orders.amt > 5;")
	require.NoError(t, err)

	plan, err := BuildPlan(stmt, testResolver())
	require.NoError(t, err)
	join := plan.(*JoinScanPlan)
	require.Equal(t, "users", join.LeftTable)
	require.Equal(t, "orders", join.RightTable)
	require.Equal(t, "id", join.LeftCol)
	require.Equal(t, "uid", join.RightCol)
	require.Equal(t, []string{"users.name", "orders.amt"}, join.Columns)
	require.Equal(t, "orders.amt", join.Where.Conditions[0].Column)
	require.Equal(t, value.OpGt, join.Where.Conditions[0].Op)
}

func TestBuildPlan_UpdateCoercesLiteralsAndWhere(t *testing.T) {
	stmt, err := parser.Parse("UPDATE users SET name = 'carol' WHERE id = 1;")
	require.NoError(t, err)

	plan, err := BuildPlan(stmt, testResolver())
	require.NoError(t, err)
	upd := plan.(*UpdatePlan)
	require.Equal(t, value.String("carol"), upd.Sets["name"])
	require.Equal(t, "id", upd.Where.Conditions[0].Column)
}

func TestBuildPlan_DeleteWithWhere(t *testing.T) {
	stmt, err := parser.Parse("DELETE FROM users WHERE id = 2;")
	require.NoError(t, err)

	plan, err := BuildPlan(stmt, testResolver())
	require.NoError(t, err)
	del := plan.(*DeletePlan)
	require.Equal(t, "users", del.TableName)
	require.Len(t, del.Where.Conditions, 1)
}

func TestBuildPlan_BoolLiteralCoercesFromBareOneZero(t *testing.T) {
	schema := record.Schema{
		Table: "flags",
		Columns: []record.Column{
			{Name: "id", Kind: value.KindInt, PrimaryKey: true},
			{Name: "active", Kind: value.KindBool},
		},
	}
	resolver := fakeResolver{"flags": {Schema: schema}}

	stmt, err := parser.Parse("INSERT INTO flags VALUES (1, 1);")
	require.NoError(t, err)
	plan, err := BuildPlan(stmt, resolver)
	require.NoError(t, err)
	ins := plan.(*InsertPlan)
	require.Equal(t, value.Bool(true), ins.Row["active"])
}
