package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type material20241122 struct {
	bun.BaseModel `bun:"table:study_materials"`

	ID           string    `bun:"id,pk"`
	Title        string    `bun:"title,notnull"`
	Description  string    `bun:"description,notnull"`
	Subject      string    `bun:"subject,notnull"`
	FileURL      string    `bun:"file_url,notnull"`
	ExternalLink string    `bun:"external_link,notnull"`
	UploadedBy   string    `bun:"uploaded_by,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type news20241122 struct {
	bun.BaseModel `bun:"table:news"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	Content   string    `bun:"content,notnull"`
	CreatedBy string    `bun:"created_by,notnull"`
	IsPublic  bool      `bun:"is_public,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewCreateTable().Model((*material20241122)(nil)).IfNotExists().Exec(ctx); err != nil {
				return err
			}
			_, err := db.NewCreateTable().Model((*news20241122)(nil)).IfNotExists().Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			for _, model := range []interface{}{(*news20241122)(nil), (*material20241122)(nil)} {
				if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
