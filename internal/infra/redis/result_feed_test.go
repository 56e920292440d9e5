package redis

import (
	"context"
	"io"
	"testing"
	"time"

	"campus-exam-service/internal/app"
	"campus-exam-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
)

func quietLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestFeedPresenceLeases(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := newClient(mr)
	start := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	now := start

	first := NewFeedPresence(client, time.Minute, quietLog())
	first.now = func() time.Time { return now }
	first.Watch("quiz-1")

	if ok, err := watched(ctx, client, "quiz-1", start); err != nil || !ok {
		t.Fatalf("expected quiz-1 watched, got %v %v", ok, err)
	}
	if ok, _ := watched(ctx, client, "quiz-1", start.Add(2*time.Minute)); ok {
		t.Fatalf("lease must lapse after the ttl")
	}

	// renewing while the feed is open extends the lease
	now = start.Add(90 * time.Second)
	if err := first.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if ok, _ := watched(ctx, client, "quiz-1", start.Add(2*time.Minute)); !ok {
		t.Fatalf("expected refreshed lease to cover the later time")
	}

	second := NewFeedPresence(client, time.Minute, quietLog())
	second.now = func() time.Time { return now }
	second.Watch("quiz-1")
	first.Unwatch("quiz-1")
	if ok, _ := watched(ctx, client, "quiz-1", now); !ok {
		t.Fatalf("quiz stays watched while another instance holds a lease")
	}

	second.Unwatch("quiz-1")
	if ok, _ := watched(ctx, client, "quiz-1", now); ok {
		t.Fatalf("expected quiz-1 unwatched")
	}
	if mr.Exists("quiz:feed:quiz-1") {
		t.Fatalf("expected empty presence key removed")
	}
}

func TestResultPublisherSkipsUnwatchedQuizzes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := newClient(mr)
	sub := client.PSubscribe(ctx, resultsPattern)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("psubscribe: %v", err)
	}
	messages := sub.Channel()

	NewFeedPresence(client, time.Minute, quietLog()).Watch("quiz-1")

	publisher := NewResultPublisher(client)
	if err := publisher.Publish(ctx, domain.ResultEvent{ResultID: "r2", QuizID: "quiz-2"}); err != nil {
		t.Fatalf("publish unwatched: %v", err)
	}
	if err := publisher.Publish(ctx, domain.ResultEvent{ResultID: "r1", QuizID: "quiz-1"}); err != nil {
		t.Fatalf("publish watched: %v", err)
	}

	// delivery is ordered, so a published quiz-2 event would arrive first
	select {
	case msg := <-messages:
		if msg.Channel != resultsChannel("quiz-1") {
			t.Fatalf("unexpected message on %s", msg.Channel)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for quiz-1 event")
	}
}

func TestRelayDeliversPublishedResults(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	broadcaster := app.NewBroadcaster(NewFeedPresence(client, time.Minute, quietLog()))
	events, cancel := broadcaster.Subscribe("quiz-1")
	defer cancel()

	relay := NewRelay(client, broadcaster, quietLog())

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for mr.PubSubNumPat() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("relay never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	publisher := NewResultPublisher(client)
	event := domain.ResultEvent{ResultID: "r1", QuizID: "quiz-1", UserID: "stu-1", Score: 50, Passed: true, Reason: domain.ReasonManual}
	if err := publisher.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// nobody watches quiz-2, so nothing is sent for it
	_ = publisher.Publish(context.Background(), domain.ResultEvent{ResultID: "r2", QuizID: "quiz-2"})

	select {
	case got := <-events:
		if got.ResultID != "r1" || got.Score != 50 {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for relayed event")
	}

	stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("relay returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("relay did not stop")
	}
}
