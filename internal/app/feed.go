package app

import (
	"context"
	"sync"

	"campus-exam-service/internal/domain"
)

// FeedPresence advertises which quizzes have open feeds on this instance,
// so publishers elsewhere can skip quizzes nobody is watching.
type FeedPresence interface {
	Watch(quizID string)
	Unwatch(quizID string)
}

// feed fans result events for one quiz out to subscribed staff.
type feed struct {
	subscribers map[chan domain.ResultEvent]struct{}
}

func (f *feed) broadcast(event domain.ResultEvent) {
	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			// slow subscriber: drop its oldest event
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

// Broadcaster delivers result events to local feed subscribers. It is the
// in-process ResultPublisher and the sink of the Redis relay.
type Broadcaster struct {
	presence FeedPresence

	mu    sync.Mutex
	feeds map[string]*feed
}

// NewBroadcaster keeps feeds in process. presence may be nil when this is
// the only instance.
func NewBroadcaster(presence FeedPresence) *Broadcaster {
	return &Broadcaster{
		presence: presence,
		feeds:    make(map[string]*feed),
	}
}

// Publish pushes an event to every subscriber of the event's quiz.
func (b *Broadcaster) Publish(_ context.Context, event domain.ResultEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.feeds[event.QuizID]; ok {
		f.broadcast(event)
	}
	return nil
}

// Subscribe returns a channel of events for quizID.
// The caller must invoke the returned cancel function to avoid leaks.
// The channel is closed by cancel or when the quiz feed is closed.
func (b *Broadcaster) Subscribe(quizID string) (<-chan domain.ResultEvent, func()) {
	ch := make(chan domain.ResultEvent, 8)

	b.mu.Lock()
	f, ok := b.feeds[quizID]
	if !ok {
		f = &feed{subscribers: make(map[chan domain.ResultEvent]struct{})}
		b.feeds[quizID] = f
		if b.presence != nil {
			b.presence.Watch(quizID)
		}
	}
	f.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := f.subscribers[ch]; !ok {
			return
		}
		delete(f.subscribers, ch)
		close(ch)
		if len(f.subscribers) == 0 && b.feeds[quizID] == f {
			b.drop(quizID)
		}
	}
}

// Close ends every subscription to quizID, e.g. after the quiz is deleted.
func (b *Broadcaster) Close(quizID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.feeds[quizID]
	if !ok {
		return
	}
	for ch := range f.subscribers {
		delete(f.subscribers, ch)
		close(ch)
	}
	b.drop(quizID)
}

// Watching reports whether quizID has an open feed here.
func (b *Broadcaster) Watching(quizID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.feeds[quizID]
	return ok
}

// drop must be called with b.mu held.
func (b *Broadcaster) drop(quizID string) {
	delete(b.feeds, quizID)
	if b.presence != nil {
		b.presence.Unwatch(quizID)
	}
}
