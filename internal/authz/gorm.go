package authz

import (
	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// Where narrows a gorm query with a squirrel condition. A nil condition is a no-op.
func Where(db *gorm.DB, cond sq.Sqlizer) *gorm.DB {
	if cond == nil {
		return db
	}
	query, args, err := cond.ToSql()
	if err != nil {
		_ = db.AddError(err)
		return db
	}
	return db.Where(query, args...)
}

// ApplySelect adds a condition to a squirrel select, mirroring Where.
func ApplySelect(b sq.SelectBuilder, cond sq.Sqlizer) sq.SelectBuilder {
	if cond != nil {
		return b.Where(cond)
	}
	return b
}
