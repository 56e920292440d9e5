package redis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const presenceOpTimeout = 2 * time.Second

// FeedPresence records, per quiz, which instances have open result feeds.
// quiz:feed:{quizID} is a sorted set of instance ids scored by the unix
// millisecond at which their lease lapses. Run renews the leases while
// feeds stay open, so a crashed instance stops counting after one TTL.
type FeedPresence struct {
	client   *redis.Client
	ttl      time.Duration
	instance string
	now      func() time.Time
	log      *logrus.Entry

	mu      sync.Mutex
	watched map[string]struct{}
}

func NewFeedPresence(client *redis.Client, ttl time.Duration, log *logrus.Entry) *FeedPresence {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &FeedPresence{
		client:   client,
		ttl:      ttl,
		instance: uuid.NewString(),
		now:      time.Now,
		log:      log,
		watched:  make(map[string]struct{}),
	}
}

func (p *FeedPresence) Watch(quizID string) {
	p.mu.Lock()
	p.watched[quizID] = struct{}{}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
	defer cancel()
	if err := p.lease(ctx, []string{quizID}); err != nil {
		p.log.WithError(err).WithField("quiz_id", quizID).Warn("mark feed presence")
	}
}

func (p *FeedPresence) Unwatch(quizID string) {
	p.mu.Lock()
	delete(p.watched, quizID)
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
	defer cancel()
	if err := p.client.ZRem(ctx, feedKey(quizID), p.instance).Err(); err != nil {
		p.log.WithError(err).WithField("quiz_id", quizID).Warn("clear feed presence")
	}
}

// Refresh renews this instance's lease on every quiz it still watches.
func (p *FeedPresence) Refresh(ctx context.Context) error {
	p.mu.Lock()
	quizIDs := make([]string, 0, len(p.watched))
	for id := range p.watched {
		quizIDs = append(quizIDs, id)
	}
	p.mu.Unlock()
	if len(quizIDs) == 0 {
		return nil
	}
	return p.lease(ctx, quizIDs)
}

// Run refreshes leases every third of the TTL until ctx is done.
func (p *FeedPresence) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
				p.log.WithError(err).Warn("refresh feed presence")
			}
		}
	}
}

func (p *FeedPresence) lease(ctx context.Context, quizIDs []string) error {
	until := float64(p.now().Add(p.ttl).UnixMilli())
	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range quizIDs {
			pipe.ZAdd(ctx, feedKey(id), redis.Z{Score: until, Member: p.instance})
			pipe.Expire(ctx, feedKey(id), p.ttl)
		}
		return nil
	})
	return err
}

// watched reports whether any instance holds an unexpired lease for quizID.
func watched(ctx context.Context, client *redis.Client, quizID string, now time.Time) (bool, error) {
	n, err := client.ZCount(ctx, feedKey(quizID), "("+strconv.FormatInt(now.UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func feedKey(quizID string) string {
	return "quiz:feed:" + quizID
}
