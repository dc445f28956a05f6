package lobby

import (
	"context"

	"github.com/DoyleJ11/val-draft-backend/internal/engine"
)

// Submit sends an admin command and waits for the resulting state.
func (l *Lobby) Submit(ctx context.Context, cmd engine.Command) (Result, error) {
	ch := make(chan Result, 1)
	if err := l.send(ctx, FromAdmin{Cmd: cmd, Reply: ch}); err != nil {
		return Result{}, err
	}
	return await(ctx, l, ch)
}

func (l *Lobby) AttemptSelection(ctx context.Context, asset string) (Result, error) {
	return l.AttemptFor(ctx, asset, 0)
}

// AttemptFor is AttemptSelection that is refused if action is no longer the
// current action.
func (l *Lobby) AttemptFor(ctx context.Context, asset string, action int) (Result, error) {
	ch := make(chan Result, 1)
	if err := l.send(ctx, Attempt{Asset: asset, ForAction: action, Reply: ch}); err != nil {
		return Result{}, err
	}
	return await(ctx, l, ch)
}

func (l *Lobby) ControlTimer(ctx context.Context, op TimerOp, seconds int) (Result, error) {
	ch := make(chan Result, 1)
	if err := l.send(ctx, TimerControl{Op: op, Seconds: seconds, Reply: ch}); err != nil {
		return Result{}, err
	}
	return await(ctx, l, ch)
}

// Current returns the lobby's view without changing anything.
func (l *Lobby) Current(ctx context.Context) (View, error) {
	ch := make(chan View, 1)
	if err := l.send(ctx, GetState{Reply: ch}); err != nil {
		return View{}, err
	}
	return await(ctx, l, ch)
}

func (l *Lobby) send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, l *Lobby, ch <-chan T) (T, error) {
	var zero T
	select {
	case v := <-ch:
		return v, nil
	case <-l.ctx.Done():
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
