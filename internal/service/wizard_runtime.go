package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrRuntimeStopped = errors.New("wizard runtime stopped")

// Action es una operación del usuario sobre la sesión. Puede devolver un efecto.
type Action func(s *WizardSession) (Cmd, error)

type actionRequest struct {
	fn    Action
	reply chan actionResult
}

type actionResult struct {
	snapshot SessionSnapshot
	err      error
}

// WizardRuntime es dueño de una sesión: acciones y resultados de efectos se aplican
// en un único goroutine, y los efectos corren en goroutines propios.
type WizardRuntime struct {
	session *WizardSession
	logger  *zap.Logger

	actions chan actionRequest
	msgs    chan Msg
	cancel  context.CancelFunc
	done    chan struct{}
	effects sync.WaitGroup
}

// StartWizardRuntime lanza el loop; termina al cancelar ctx o con Stop.
func StartWizardRuntime(ctx context.Context, session *WizardSession, logger *zap.Logger) *WizardRuntime {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	r := &WizardRuntime{
		session: session,
		logger:  logger.With(zap.String("session_id", session.ID())),
		actions: make(chan actionRequest),
		msgs:    make(chan Msg),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go r.loop(ctx)
	return r
}

func (r *WizardRuntime) ID() string { return r.session.ID() }

func (r *WizardRuntime) loop(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			r.effects.Wait()
			r.logger.Debug("wizard runtime stopped")
			return

		case req := <-r.actions:
			cmd, err := req.fn(r.session)
			r.spawn(ctx, cmd)
			req.reply <- actionResult{snapshot: r.session.Snapshot(), err: err}

		case msg := <-r.msgs:
			r.spawn(ctx, r.session.Update(msg))
		}
	}
}

func (r *WizardRuntime) spawn(ctx context.Context, cmd Cmd) {
	if cmd == nil {
		return
	}
	r.effects.Add(1)
	go func() {
		defer r.effects.Done()
		msg := cmd(ctx)
		if msg == nil {
			return
		}
		select {
		case r.msgs <- msg:
		case <-ctx.Done():
		}
	}()
}

// Do ejecuta fn en el goroutine de la sesión y devuelve la foto resultante.
func (r *WizardRuntime) Do(ctx context.Context, fn Action) (SessionSnapshot, error) {
	req := actionRequest{fn: fn, reply: make(chan actionResult, 1)}
	select {
	case r.actions <- req:
	case <-r.done:
		return SessionSnapshot{}, ErrRuntimeStopped
	case <-ctx.Done():
		return SessionSnapshot{}, ctx.Err()
	}
	res := <-req.reply
	return res.snapshot, res.err
}

func (r *WizardRuntime) Snapshot(ctx context.Context) (SessionSnapshot, error) {
	return r.Do(ctx, func(*WizardSession) (Cmd, error) { return nil, nil })
}

// Stop cancela los efectos en curso y espera a que el loop termine.
func (r *WizardRuntime) Stop() {
	r.cancel()
	<-r.done
}

func (r *WizardRuntime) Done() <-chan struct{} { return r.done }
