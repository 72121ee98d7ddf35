package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repopa/pkg/logger"
)

// ChannelEntesChanged is notified by a trigger on every write to entes.
const ChannelEntesChanged = "entes_changed"

// Handler receives one notification.
type Handler func(channel, payload string)

// Listener holds a dedicated connection in LISTEN mode and dispatches
// notifications to registered handlers.
type Listener struct {
	pool     *pgxpool.Pool
	channels []string

	handlersMu sync.RWMutex
	handlers   map[string][]Handler

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewListener creates a listener for channels.
func NewListener(pool *pgxpool.Pool, channels ...string) *Listener {
	return &Listener{
		pool:     pool,
		channels: channels,
		handlers: make(map[string][]Handler),
	}
}

// On registers h for channel.
func (l *Listener) On(channel string, h Handler) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	l.handlers[channel] = append(l.handlers[channel], h)
}

// Start runs the listen loop until Stop or ctx cancellation.
func (l *Listener) Start(ctx context.Context) {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop(ctx)
}

// Stop ends the loop and waits for it.
func (l *Listener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.cancel = nil
	l.lifecycleMu.Unlock()

	cancel()
	l.wg.Wait()
}

func (l *Listener) listenLoop(ctx context.Context) {
	defer l.wg.Done()

	for ctx.Err() == nil {
		if err := l.listenOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "notification listener failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	for _, ch := range l.channels {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			return err
		}
	}
	logger.Info(ctx, "listening for notifications", "channels", l.channels)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			// a cancelled wait leaves the connection unusable
			_ = conn.Conn().Close(context.Background())
			return err
		}
		l.dispatch(ctx, n.Channel, n.Payload)
	}
}

func (l *Listener) dispatch(ctx context.Context, channel, payload string) {
	l.handlersMu.RLock()
	handlers := l.handlers[channel]
	l.handlersMu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "notification handler panic", "channel", channel, "panic", r)
				}
			}()
			h(channel, payload)
		}()
	}
}
