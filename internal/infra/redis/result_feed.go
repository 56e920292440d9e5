package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"campus-exam-service/internal/app"
	"campus-exam-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const resultsPattern = "quiz:*:results"

func resultsChannel(quizID string) string {
	return "quiz:" + quizID + ":results"
}

// ResultPublisher announces recorded results on quiz:{quizID}:results so
// every instance can push them to its own feed subscribers. Quizzes that no
// instance is watching, per FeedPresence, are skipped.
type ResultPublisher struct {
	client *redis.Client
	now    func() time.Time
}

func NewResultPublisher(client *redis.Client) *ResultPublisher {
	return &ResultPublisher{client: client, now: time.Now}
}

func (p *ResultPublisher) Publish(ctx context.Context, event domain.ResultEvent) error {
	// on a presence lookup error publish anyway
	if ok, err := watched(ctx, p.client, event.QuizID, p.now()); err == nil && !ok {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, resultsChannel(event.QuizID), payload).Err()
}

// Relay forwards result events from Redis into a local sink, normally the
// app.Broadcaster that owns this instance's feeds.
type Relay struct {
	client *redis.Client
	sink   app.ResultPublisher
	log    *logrus.Entry
}

func NewRelay(client *redis.Client, sink app.ResultPublisher, log *logrus.Entry) *Relay {
	return &Relay{client: client, sink: sink, log: log}
}

// Run blocks until ctx is done or the subscription closes.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, resultsPattern)
	defer pubsub.Close()

	// wait for the subscription to be confirmed before consuming
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	r.log.WithField("pattern", resultsPattern).Info("result relay subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.forward(ctx, msg)
		}
	}
}

func (r *Relay) forward(ctx context.Context, msg *redis.Message) {
	var event domain.ResultEvent
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		r.log.WithError(err).WithField("channel", msg.Channel).Warn("dropping malformed result event")
		return
	}
	if event.QuizID == "" {
		event.QuizID = strings.TrimSuffix(strings.TrimPrefix(msg.Channel, "quiz:"), ":results")
	}
	if err := r.sink.Publish(ctx, event); err != nil {
		r.log.WithError(err).WithField("quiz_id", event.QuizID).Warn("forward result event")
	}
}
