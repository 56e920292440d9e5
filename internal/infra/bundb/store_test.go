package bundb

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"campus-exam-service/internal/domain"
	"github.com/uptrace/bun"
)

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "exam.db") + "?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleQuiz(id string, createdAt time.Time) domain.Quiz {
	return domain.Quiz{
		ID:              id,
		Title:           "Operating systems",
		Description:     "Processes and scheduling",
		DurationMinutes: 20,
		PassingScore:    40,
		CreatorID:       "fac-1",
		GraderIDs:       []string{"fac-2", "fac-3"},
		CreatedAt:       createdAt,
		Questions: []domain.Question{
			{ID: id + "-q1", QuizID: id, Prompt: "Which is not a process state?", Options: [4]string{"ready", "running", "blocked", "compiled"}, CorrectOption: 4, Marks: 2},
			{ID: id + "-q2", QuizID: id, Prompt: "Round robin needs a?", Options: [4]string{"quantum", "heap", "stack", "lock"}, CorrectOption: 1, Marks: 1},
		},
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	group, err := Migrate(context.Background(), db)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if !group.IsZero() {
		t.Fatalf("expected nothing to apply, got %s", group)
	}
}

func TestCatalogStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore(openTestDB(t))
	created := time.Date(2024, 11, 22, 8, 0, 0, 0, time.UTC)

	if err := store.CreateQuiz(ctx, sampleQuiz("quiz-1", created)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.LoadQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Title != "Operating systems" || got.PassingScore != 40 || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected quiz %+v", got)
	}
	if len(got.Questions) != 2 || got.Questions[0].ID != "quiz-1-q1" || got.Questions[0].Options[3] != "compiled" {
		t.Fatalf("questions out of order or incomplete: %+v", got.Questions)
	}
	if got.TotalMarks() != 3 {
		t.Fatalf("expected 3 total marks, got %d", got.TotalMarks())
	}
	if len(got.GraderIDs) != 2 || !got.HasGrader("fac-3") {
		t.Fatalf("unexpected graders %v", got.GraderIDs)
	}

	if _, err := store.LoadQuiz(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestCatalogStoreReplace(t *testing.T) {
	ctx := context.Background()
	store := NewCatalogStore(openTestDB(t))
	quiz := sampleQuiz("quiz-1", time.Now().UTC())
	if err := store.CreateQuiz(ctx, quiz); err != nil {
		t.Fatalf("create: %v", err)
	}

	quiz.Title = "Operating systems II"
	quiz.GraderIDs = []string{"fac-9"}
	quiz.Questions = quiz.Questions[:1]
	quiz.Questions[0].ID = "quiz-1-q9"
	if err := store.ReplaceQuiz(ctx, quiz); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := store.LoadQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Title != "Operating systems II" || len(got.Questions) != 1 || got.Questions[0].ID != "quiz-1-q9" {
		t.Fatalf("replace not applied: %+v", got)
	}
	if len(got.GraderIDs) != 1 || got.GraderIDs[0] != "fac-9" {
		t.Fatalf("graders not replaced: %v", got.GraderIDs)
	}

	missing := sampleQuiz("quiz-404", time.Now())
	if err := store.ReplaceQuiz(ctx, missing); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalogStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewCatalogStore(db)
	ledger := NewResultLedger(db)
	base := time.Date(2024, 11, 22, 8, 0, 0, 0, time.UTC)

	_ = store.CreateQuiz(ctx, sampleQuiz("quiz-1", base))
	_ = store.CreateQuiz(ctx, sampleQuiz("quiz-2", base.Add(time.Hour)))

	list, err := store.ListQuizzes(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "quiz-2" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[0].QuestionCount != 2 || list[0].Questions != nil || len(list[0].GraderIDs) != 2 {
		t.Fatalf("unexpected summary %+v", list[0])
	}

	if _, err := ledger.Record(ctx, domain.Result{UserID: "stu-1", QuizID: "quiz-1", Reason: domain.ReasonManual}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.DeleteQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := ledger.FindByUserAndQuiz(ctx, "stu-1", "quiz-1"); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected results cascaded, got %v", err)
	}
	if err := store.DeleteQuiz(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResultLedgerRecordOnce(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_ = NewCatalogStore(db).CreateQuiz(ctx, sampleQuiz("quiz-1", time.Now().UTC()))
	ledger := NewResultLedger(db)

	first, err := ledger.Record(ctx, domain.Result{
		UserID:       "stu-1",
		QuizID:       "quiz-1",
		Score:        66.66666666666667,
		Passed:       true,
		Reason:       domain.ReasonTabSwitchViolation,
		SecurityData: json.RawMessage(`{"tabSwitches":3}`),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	_, err = ledger.Record(ctx, domain.Result{UserID: "stu-1", QuizID: "quiz-1", Score: 100})
	var dup *domain.DuplicateAttemptError
	if !errors.As(err, &dup) || dup.ResultID != first.ID {
		t.Fatalf("expected duplicate of %s, got %v", first.ID, err)
	}

	stored, err := ledger.GetResult(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Score != first.Score || stored.Reason != domain.ReasonTabSwitchViolation || !stored.Passed {
		t.Fatalf("unexpected stored result %+v", stored)
	}
	if string(stored.SecurityData) != `{"tabSwitches":3}` {
		t.Fatalf("security data lost: %s", stored.SecurityData)
	}
	if !stored.CompletedAt.Equal(first.CompletedAt) {
		t.Fatalf("timestamp drift: %v vs %v", stored.CompletedAt, first.CompletedAt)
	}
}

func TestResultLedgerUniqueIndexClosesRace(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_ = NewCatalogStore(db).CreateQuiz(ctx, sampleQuiz("quiz-1", time.Now().UTC()))
	ledger := NewResultLedger(db)

	// a row that bypassed the pre-check, as a concurrent winner would
	winner := &resultModel{ID: "winner", UserID: "stu-1", QuizID: "quiz-1", Reason: "manual", CompletedAt: time.Now().UTC()}
	if _, err := db.NewInsert().Model(winner).Exec(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := db.NewInsert().Model(&resultModel{ID: "loser", UserID: "stu-1", QuizID: "quiz-1", Reason: "manual", CompletedAt: time.Now().UTC()}).Exec(ctx)
	if !isUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	_, err = ledger.Record(ctx, domain.Result{UserID: "stu-1", QuizID: "quiz-1"})
	var dup *domain.DuplicateAttemptError
	if !errors.As(err, &dup) || dup.ResultID != "winner" {
		t.Fatalf("expected duplicate of winner, got %v", err)
	}
}

func TestResultLedgerConcurrentRecord(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_ = NewCatalogStore(db).CreateQuiz(ctx, sampleQuiz("quiz-1", time.Now().UTC()))
	ledger := NewResultLedger(db)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Record(ctx, domain.Result{UserID: "stu-1", QuizID: "quiz-1", Reason: domain.ReasonManual})
			mu.Lock()
			defer mu.Unlock()
			var dup *domain.DuplicateAttemptError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &dup):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || dupes != attempts-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", attempts-1, succeeded, dupes)
	}
	results, err := ledger.ListByQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one stored result, got %d", len(results))
	}
}

func TestMaterialStore(t *testing.T) {
	ctx := context.Background()
	store := NewMaterialStore(openTestDB(t))
	base := time.Date(2024, 11, 22, 8, 0, 0, 0, time.UTC)

	material := domain.StudyMaterial{ID: "m1", Title: "Paging", Subject: "OS", FileURL: "/files/uploads/fac-1/a.pdf", UploadedBy: "fac-1", CreatedAt: base}
	if err := store.CreateMaterial(ctx, material); err != nil {
		t.Fatalf("create material: %v", err)
	}
	got, err := store.GetMaterial(ctx, "m1")
	if err != nil || got.FileURL != material.FileURL {
		t.Fatalf("get material: %+v %v", got, err)
	}
	if err := store.DeleteMaterial(ctx, "m1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetMaterial(ctx, "m1"); !errors.Is(err, domain.ErrMaterialNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_ = store.CreateNews(ctx, domain.News{ID: "n1", Title: "Public", Content: "x", CreatedBy: "hod-1", IsPublic: true, CreatedAt: base})
	_ = store.CreateNews(ctx, domain.News{ID: "n2", Title: "Staff", Content: "y", CreatedBy: "hod-1", CreatedAt: base.Add(time.Minute)})
	all, _ := store.ListNews(ctx, false)
	public, _ := store.ListNews(ctx, true)
	if len(all) != 2 || all[0].ID != "n2" || len(public) != 1 || public[0].ID != "n1" {
		t.Fatalf("unexpected news lists %+v / %+v", all, public)
	}
}
