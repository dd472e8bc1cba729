package devcore

import "sync"

// broadcaster fans values out to buffered subscriber channels. Slow
// subscribers miss values instead of blocking the emitter.
type broadcaster[T any] struct {
	mu     sync.Mutex
	size   int
	nextID int
	subs   map[int]chan T
}

func newBroadcaster[T any](size int) *broadcaster[T] {
	return &broadcaster[T]{size: size, subs: make(map[int]chan T)}
}

func (b *broadcaster[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan T, b.size)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

func (b *broadcaster[T]) Emit(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// CloseAll ends every subscription.
func (b *broadcaster[T]) CloseAll() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.subs)
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return n
}

func (b *broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
