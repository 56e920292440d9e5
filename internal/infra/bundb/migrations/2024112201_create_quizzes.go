package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

type quiz20241122 struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID              string    `bun:"id,pk"`
	Title           string    `bun:"title,notnull"`
	Description     string    `bun:"description,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	PassingScore    int       `bun:"passing_score,notnull"`
	CreatorID       string    `bun:"creator_id,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
}

type question20241122 struct {
	bun.BaseModel `bun:"table:questions"`

	ID            string `bun:"id,pk"`
	QuizID        string `bun:"quiz_id,notnull"`
	Position      int    `bun:"position,notnull"`
	Prompt        string `bun:"prompt,notnull"`
	Option1       string `bun:"option_1,notnull"`
	Option2       string `bun:"option_2,notnull"`
	Option3       string `bun:"option_3,notnull"`
	Option4       string `bun:"option_4,notnull"`
	CorrectOption int    `bun:"correct_option,notnull"`
	Marks         int    `bun:"marks,notnull"`
}

type grader20241122 struct {
	bun.BaseModel `bun:"table:quiz_graders"`

	QuizID string `bun:"quiz_id,pk"`
	UserID string `bun:"user_id,pk"`
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewCreateTable().Model((*quiz20241122)(nil)).IfNotExists().Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewCreateTable().
				Model((*question20241122)(nil)).
				IfNotExists().
				ForeignKey(`("quiz_id") REFERENCES "quizzes" ("id") ON DELETE CASCADE`).
				Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewCreateIndex().
				Model((*question20241122)(nil)).
				Index("questions_quiz_position_idx").
				IfNotExists().
				Column("quiz_id", "position").
				Exec(ctx); err != nil {
				return err
			}
			_, err := db.NewCreateTable().
				Model((*grader20241122)(nil)).
				IfNotExists().
				ForeignKey(`("quiz_id") REFERENCES "quizzes" ("id") ON DELETE CASCADE`).
				Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			for _, model := range []interface{}{(*grader20241122)(nil), (*question20241122)(nil), (*quiz20241122)(nil)} {
				if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
