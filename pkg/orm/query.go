// Package orm is a small chainable query builder over gorm.
//
// Every terminal call records its latency in metrics.DBQueryDuration under
// the matching operation label.
//
//	var items []models.Item
//	err := orm.New(ctx, db).Model(&models.Item{}).Order("id").Offset(0).Limit(100).Get(&items)
package orm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/itemsapi/pkg/metrics"
)

type Query struct {
	db *gorm.DB
}

// New starts a query bound to ctx.
func New(ctx context.Context, db *gorm.DB) *Query {
	return &Query{db: db.WithContext(ctx)}
}

// Transaction runs fn inside a database transaction. fn's Query is bound to
// the transaction; returning an error rolls it back.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *Query) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Query{db: tx})
	})
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Order(value string) *Query {
	return &Query{db: q.db.Order(value)}
}

func (q *Query) Offset(n int) *Query {
	return &Query{db: q.db.Offset(n)}
}

// Limit caps the result size. A negative n means no limit.
func (q *Query) Limit(n int) *Query {
	return &Query{db: q.db.Limit(n)}
}

func (q *Query) Get(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.Find(dest).Error
}

// First loads the first matching row ordered by primary key. It returns
// gorm.ErrRecordNotFound when nothing matches.
func (q *Query) First(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.db.First(dest).Error
}

func (q *Query) Count() (int64, error) {
	defer metrics.ObserveDBQuery("select", time.Now())
	var n int64
	err := q.db.Count(&n).Error
	return n, err
}

func (q *Query) Create(v interface{}) error {
	defer metrics.ObserveDBQuery("insert", time.Now())
	return q.db.Create(v).Error
}

// Updates applies the column → value map and reports the affected row count.
func (q *Query) Updates(values map[string]interface{}) (int64, error) {
	defer metrics.ObserveDBQuery("update", time.Now())
	res := q.db.Updates(values)
	return res.RowsAffected, res.Error
}

// Delete removes the rows matching the current conditions and reports how
// many were deleted.
func (q *Query) Delete(model interface{}) (int64, error) {
	defer metrics.ObserveDBQuery("delete", time.Now())
	res := q.db.Delete(model)
	return res.RowsAffected, res.Error
}
