// Package join turns a set of target tables into the INNER JOIN chain that
// connects them along foreign keys.
package join

import (
	"errors"
	"fmt"

	"github.com/hurou927/text2sql/internal/catalog"
)

// ErrNoJoinPath is returned when a target table cannot be reached from the
// anchor table through foreign keys.
var ErrNoJoinPath = errors.New("join: no join path")

// NoJoinPathError names the tables that could not be connected.
type NoJoinPathError struct {
	From string
	To   string
}

// Error returns the error string.
func (e *NoJoinPathError) Error() string {
	return fmt.Sprintf("join: no foreign key path from %s to %s", e.From, e.To)
}

// Is reports whether the target error matches NoJoinPathError.
func (e *NoJoinPathError) Is(err error) bool {
	return err == ErrNoJoinPath
}

// Join adds Table to the FROM clause with
// ON OnTable.OnColumn = Table.Column, where OnTable is already joined.
type Join struct {
	Table    string
	Column   string
	OnTable  string
	OnColumn string
}

// Resolve connects tables[1:] to the anchor tables[0]. Each target is reached
// by the shortest foreign key path from the anchor; intermediate tables are
// joined as well, and a table is never joined twice. A single table needs no
// joins.
func Resolve(cat *catalog.Catalog, tables []string) ([]Join, error) {
	if len(tables) < 2 {
		return nil, nil
	}

	anchor := tables[0]
	joined := map[string]bool{anchor: true}
	var joins []Join

	for _, target := range tables[1:] {
		if joined[target] {
			continue
		}
		path, err := cat.ForeignKeyPath(anchor, target)
		if errors.Is(err, catalog.ErrNoPath) {
			return nil, &NoJoinPathError{From: anchor, To: target}
		}
		if err != nil {
			return nil, fmt.Errorf("resolving join to %s: %w", target, err)
		}
		for _, step := range path {
			if joined[step.To()] {
				continue
			}
			joined[step.To()] = true
			joins = append(joins, Join{
				Table:    step.To(),
				Column:   step.ToColumn(),
				OnTable:  step.From(),
				OnColumn: step.FromColumn(),
			})
		}
	}
	return joins, nil
}

// Tables returns the anchor followed by every joined table, in join order.
func Tables(anchor string, joins []Join) []string {
	out := make([]string, 0, len(joins)+1)
	out = append(out, anchor)
	for _, j := range joins {
		out = append(out, j.Table)
	}
	return out
}
