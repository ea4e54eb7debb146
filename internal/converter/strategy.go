package converter

import (
	"context"
	"fmt"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/extract"
	"github.com/hurou927/text2sql/internal/join"
	"github.com/hurou927/text2sql/internal/sqlgen"
)

// Kind identifies a conversion strategy.
type Kind int

const (
	KindModel Kind = iota
	KindRules
)

// String returns "model" or "rules".
func (k Kind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindRules:
		return "rules"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Strategy turns a question into SQL. Model strategies may block and must
// honor ctx.
type Strategy interface {
	Kind() Kind
	Convert(ctx context.Context, question string) (string, error)
}

// RuleStrategy is the deterministic keyword engine: extract an intent,
// resolve joins, render SQL.
type RuleStrategy struct {
	cat *catalog.Catalog
	ex  *extract.Extractor
}

// NewRuleStrategy compiles the extractor dictionary for cat.
func NewRuleStrategy(cat *catalog.Catalog) *RuleStrategy {
	return &RuleStrategy{cat: cat, ex: extract.New(cat)}
}

// Kind returns KindRules.
func (r *RuleStrategy) Kind() Kind { return KindRules }

// Convert runs the rule pipeline. It never blocks.
func (r *RuleStrategy) Convert(_ context.Context, question string) (string, error) {
	in, err := r.Intent(question)
	if err != nil {
		return "", err
	}
	joins, err := join.Resolve(r.cat, in.Tables)
	if err != nil {
		return "", err
	}
	return sqlgen.Build(r.cat, in, joins)
}

// Intent exposes the extracted intent, for explaining a conversion.
func (r *RuleStrategy) Intent(question string) (*extract.Intent, error) {
	return r.ex.Extract(question)
}
