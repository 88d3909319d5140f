package rpc

import "sync"

type StreamLimitOptions struct {
	MaxGlobal    int
	MaxPerClient int
}

type streamLimiter struct {
	maxGlobal    int
	maxPerClient int

	mu       sync.Mutex
	global   int
	byClient map[string]int
}

// newStreamLimiter returns nil, which admits every stream, when both
// limits are unset.
func newStreamLimiter(opts StreamLimitOptions) *streamLimiter {
	if opts.MaxGlobal <= 0 && opts.MaxPerClient <= 0 {
		return nil
	}
	return &streamLimiter{
		maxGlobal:    opts.MaxGlobal,
		maxPerClient: opts.MaxPerClient,
		byClient:     make(map[string]int),
	}
}

func (l *streamLimiter) acquire(clientKey string) (func(), bool) {
	if l == nil {
		return func() {}, true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.maxGlobal > 0 && l.global >= l.maxGlobal {
		return nil, false
	}
	if l.maxPerClient > 0 && l.byClient[clientKey] >= l.maxPerClient {
		return nil, false
	}
	l.global++
	l.byClient[clientKey]++
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.global--
			next := l.byClient[clientKey] - 1
			if next <= 0 {
				delete(l.byClient, clientKey)
				return
			}
			l.byClient[clientKey] = next
		})
	}, true
}
