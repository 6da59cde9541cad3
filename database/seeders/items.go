package seeders

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/itemsapi/app/repositories"
	"github.com/shashiranjanraj/itemsapi/app/services"
	"github.com/shashiranjanraj/itemsapi/pkg/validate"
)

var sampleItems = []struct {
	title       string
	description string
}{
	{"Book", "A novel"},
	{"Notebook", "Squared paper, 80 sheets"},
	{"Pen", ""},
	{"Desk lamp", "Warm white LED"},
	{"Coffee mug", "Holds 350 ml"},
}

// SeedItems inserts the sample items through the item service. It does
// nothing when the items table already has rows.
func SeedItems(ctx context.Context, db *gorm.DB) error {
	repo := repositories.NewItemRepository(db)
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	svc := services.NewItemService(repo, 0)
	for _, s := range sampleItems {
		in := services.ItemCreate{Title: validate.Some(s.title)}
		if s.description != "" {
			d := s.description
			in.Description = &d
		}
		if _, err := svc.Create(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
