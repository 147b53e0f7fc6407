package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a row lock on dialects that support one. SQLite already
// serializes writers at the database level.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// feeRuleLockSQL conflicts with itself but not with plain reads, so fee
// rule writers queue up while lookups keep running.
func feeRuleLockSQL(dialect string) string {
	if dialect == "sqlite" {
		return ""
	}
	return "LOCK TABLE fee_based_cuts IN SHARE ROW EXCLUSIVE MODE"
}

// lockFeeRules holds the fee rule table for the rest of the transaction so
// the overlap check and the write see the same set of ranges.
func lockFeeRules(tx *gorm.DB) error {
	stmt := feeRuleLockSQL(tx.Dialector.Name())
	if stmt == "" {
		return nil
	}
	return persistence("lock fee rules", tx.Exec(stmt).Error)
}
