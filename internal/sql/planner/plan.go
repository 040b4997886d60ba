// Package planner lowers a parsed parser.Statement into one dispatchable
// Plan node per §4.8, resolving column types against the catalog so the
// executor never has to re-parse literals.
package planner

import (
	"github.com/ovidtal/reldb/internal/predicate"
	"github.com/ovidtal/reldb/internal/record"
)

// Plan is the interface every lowered statement implements.
type Plan interface {
	planNode()
}

type CreateDatabasePlan struct{ Name string }

func (*CreateDatabasePlan) planNode() {}

type DropDatabasePlan struct{ Name string }

func (*DropDatabasePlan) planNode() {}

type UseDatabasePlan struct{ Name string }

func (*UseDatabasePlan) planNode() {}

type ShowDatabasesPlan struct{}

func (*ShowDatabasesPlan) planNode() {}

type ShowTablesPlan struct{}

func (*ShowTablesPlan) planNode() {}

type CreateTablePlan struct{ Schema record.Schema }

func (*CreateTablePlan) planNode() {}

type DropTablePlan struct{ TableName string }

func (*DropTablePlan) planNode() {}

type InsertPlan struct {
	TableName string
	Row       record.Row
}

func (*InsertPlan) planNode() {}

// IndexLookupPlan is the primary-key fast path of §4.5/§4.8: a point lookup
// on Key, followed by a full re-check of Where against every hit (so a stale
// index entry can never surface a row that no longer matches).
type IndexLookupPlan struct {
	TableName string
	Key       int32
	Where     predicate.Predicate
	Columns   []string // nil means "*"
}

func (*IndexLookupPlan) planNode() {}

type SeqScanPlan struct {
	TableName string
	Where     predicate.Predicate
	Columns   []string
}

func (*SeqScanPlan) planNode() {}

// JoinScanPlan is the nested-loop join of §4.7. LeftCol/RightCol are bare
// column names (already validated against their respective schema); Where
// and Columns address the combined row by "table.col" or bare column keys.
type JoinScanPlan struct {
	LeftTable  string
	RightTable string
	LeftCol    string
	RightCol   string
	Where      predicate.Predicate
	Columns    []string
}

func (*JoinScanPlan) planNode() {}

type UpdatePlan struct {
	TableName string
	Sets      record.Row
	Where     predicate.Predicate
}

func (*UpdatePlan) planNode() {}

type DeletePlan struct {
	TableName string
	Where     predicate.Predicate
}

func (*DeletePlan) planNode() {}
