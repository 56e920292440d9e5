package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type result20241122 struct {
	bun.BaseModel `bun:"table:results"`

	ID           string    `bun:"id,pk"`
	UserID       string    `bun:"user_id,notnull"`
	QuizID       string    `bun:"quiz_id,notnull"`
	Score        float64   `bun:"score,notnull"`
	Passed       bool      `bun:"passed,notnull"`
	Reason       string    `bun:"reason,notnull"`
	SecurityData string    `bun:"security_data,type:text"`
	CompletedAt  time.Time `bun:"completed_at,notnull"`
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewCreateTable().
				Model((*result20241122)(nil)).
				IfNotExists().
				ForeignKey(`("quiz_id") REFERENCES "quizzes" ("id") ON DELETE CASCADE`).
				Exec(ctx); err != nil {
				return err
			}
			// one result per (user, quiz); the ledger maps violations to duplicate attempts
			_, err := db.NewCreateIndex().
				Model((*result20241122)(nil)).
				Index("results_user_quiz_uniq").
				Unique().
				IfNotExists().
				Column("user_id", "quiz_id").
				Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.NewDropTable().Model((*result20241122)(nil)).IfExists().Exec(ctx)
			return err
		},
	)
}
