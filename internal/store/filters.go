// Package store is the only layer that issues statements against the
// relational store. It provides composable typed predicates, a generic
// repository engine, and the per-entity repositories built on it.
package store

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Join names one table join a predicate depends on. Two joins are the same
// join when table and condition match; composition emits each distinct join
// exactly once, so sibling clauses never multiply rows.
type Join struct {
	Table string
	On    string
}

// Clause is an immutable predicate over one table plus the joins required to
// evaluate it. Compose with AndClauses/OrClauses; never mutate one in place.
type Clause struct {
	Condition sq.Sqlizer
	Joins     []Join
}

// AndClauses combines clauses with AND, merging and de-duplicating their
// join sets.
func AndClauses(clauses ...Clause) Clause {
	var cond sq.Sqlizer
	if conds := collectConditions(clauses); len(conds) == 1 {
		cond = conds[0]
	} else if len(conds) > 1 {
		cond = sq.And(conds)
	}
	return Clause{Condition: cond, Joins: combineJoins(clauses)}
}

// OrClauses combines clauses with OR, merging and de-duplicating their join
// sets.
func OrClauses(clauses ...Clause) Clause {
	var cond sq.Sqlizer
	if conds := collectConditions(clauses); len(conds) == 1 {
		cond = conds[0]
	} else if len(conds) > 1 {
		cond = sq.Or(conds)
	}
	return Clause{Condition: cond, Joins: combineJoins(clauses)}
}

func collectConditions(clauses []Clause) []sq.Sqlizer {
	conds := make([]sq.Sqlizer, 0, len(clauses))
	for _, c := range clauses {
		if c.Condition != nil {
			conds = append(conds, c.Condition)
		}
	}
	return conds
}

func combineJoins(clauses []Clause) []Join {
	var joins []Join
	seen := map[Join]struct{}{}
	for _, c := range clauses {
		for _, j := range c.Joins {
			if _, ok := seen[j]; ok {
				continue
			}
			seen[j] = struct{}{}
			joins = append(joins, j)
		}
	}
	return joins
}

// OrderByClause orders results by one column.
type OrderByClause struct {
	Column     string
	Descending bool
}

func (o OrderByClause) sql() string {
	if o.Descending {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}

// QuerySpec is a complete query specification: one root clause plus ordering.
// Passed by value into repository operations and never mutated.
type QuerySpec struct {
	Where   Clause
	OrderBy []OrderByClause
}

// ApplyToSelect enriches a select with the spec's joins and predicate.
func (q QuerySpec) ApplyToSelect(b sq.SelectBuilder) sq.SelectBuilder {
	for _, j := range q.Where.Joins {
		b = b.Join(j.Table + " ON " + j.On)
	}
	if q.Where.Condition != nil {
		b = b.Where(q.Where.Condition)
	}
	return b
}

// ApplyToUpdate enriches an update. Joined tables become a FROM list with
// their join conditions folded into WHERE, the way Postgres expresses joined
// updates.
func (q QuerySpec) ApplyToUpdate(b sq.UpdateBuilder) sq.UpdateBuilder {
	if tables := q.JoinTables(); len(tables) > 0 {
		b = b.From(strings.Join(tables, ", "))
		for _, j := range q.Where.Joins {
			b = b.Where(sq.Expr(j.On))
		}
	}
	if q.Where.Condition != nil {
		b = b.Where(q.Where.Condition)
	}
	return b
}

// ApplyToDelete enriches a delete with the spec's predicate and join
// conditions. The caller is responsible for adding JoinTables to the USING
// list, since squirrel fixes the target table at construction time.
func (q QuerySpec) ApplyToDelete(b sq.DeleteBuilder) sq.DeleteBuilder {
	for _, j := range q.Where.Joins {
		b = b.Where(sq.Expr(j.On))
	}
	if q.Where.Condition != nil {
		b = b.Where(q.Where.Condition)
	}
	return b
}

// JoinTables returns the distinct joined tables for FROM/USING lists.
func (q QuerySpec) JoinTables() []string {
	tables := make([]string, 0, len(q.Where.Joins))
	for _, j := range q.Where.Joins {
		tables = append(tables, j.Table)
	}
	return tables
}
