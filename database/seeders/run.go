// Package seeders fills the database with sample data.
//
// A seeder is a named function over the database:
//
//	func SeedItems(ctx context.Context, db *gorm.DB) error {
//	    // insert rows …
//	    return nil
//	}
//
// Then run via CLI: itemsapi seed
package seeders

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"
)

// SeederFunc is the signature for a seed function.
type SeederFunc func(ctx context.Context, db *gorm.DB) error

// Seeder names a SeederFunc.
type Seeder struct {
	Name string
	Fn   SeederFunc
}

// All returns every seeder in run order.
func All() []Seeder {
	return []Seeder{
		{Name: "items", Fn: SeedItems},
	}
}

// RunAll executes seeders in order, writing progress to out.
// It stops on the first error.
func RunAll(ctx context.Context, db *gorm.DB, out io.Writer, seeders ...Seeder) error {
	if out == nil {
		out = io.Discard
	}
	if len(seeders) == 0 {
		fmt.Fprintln(out, "  (no seeders registered)")
		return nil
	}

	for _, s := range seeders {
		fmt.Fprintf(out, "  • Running seeder: %s … ", s.Name)
		if err := s.Fn(ctx, db); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", s.Name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}
