// Package eventbus carries in-process notifications between client
// components, such as a deleted chat or a newly accepted friend.
package eventbus

import "sync"

// Topic is a typed observer list. Handlers run synchronously in
// subscription order on the publishing goroutine.
type Topic[T any] struct {
	mu       sync.Mutex
	nextID   int
	handlers []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (t *Topic[T]) Subscribe(fn func(T)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.handlers = append(t.handlers, subscription[T]{id: id, fn: fn})

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.handlers {
			if s.id == id {
				t.handlers = append(t.handlers[:i:i], t.handlers[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers v to the handlers subscribed at the time of the call.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	handlers := make([]subscription[T], len(t.handlers))
	copy(handlers, t.handlers)
	t.mu.Unlock()

	for _, s := range handlers {
		s.fn(v)
	}
}

// Len reports the number of live subscriptions.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handlers)
}

// ChatDeleted is published after a chatroom is deleted.
type ChatDeleted struct {
	ChatroomID string
}

// FriendAdded is published after a friend request is accepted.
type FriendAdded struct {
	FriendID string
}

type Bus struct {
	ChatDeleted Topic[ChatDeleted]
	FriendAdded Topic[FriendAdded]
}

func New() *Bus {
	return &Bus{}
}
