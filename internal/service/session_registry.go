package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("wizard session not found")

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wizard_active_sessions",
		Help: "Number of wizard sessions currently held in memory",
	})

	evictedSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wizard_sessions_evicted_total",
		Help: "Total number of wizard sessions evicted for inactivity",
	})
)

// SessionFactory crea una sesión nueva con las dependencias compartidas.
type SessionFactory func() *WizardSession

type registryEntry struct {
	runtime  *WizardRuntime
	lastSeen time.Time
}

// SessionRegistry guarda las sesiones activas del host HTTP, cada una con su runtime.
// Las sesiones sin uso por más de idleTTL se descartan en Sweep.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*registryEntry
	factory  SessionFactory
	idleTTL  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewSessionRegistry(factory SessionFactory, idleTTL time.Duration, logger *zap.Logger) *SessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		sessions: make(map[string]*registryEntry),
		factory:  factory,
		idleTTL:  idleTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// Create arranca una sesión y pide el catálogo de su país inicial.
func (r *SessionRegistry) Create(ctx context.Context) (SessionSnapshot, error) {
	session := r.factory()
	rt := StartWizardRuntime(context.Background(), session, r.logger)

	snap, err := rt.Do(ctx, func(s *WizardSession) (Cmd, error) { return s.Init(), nil })
	if err != nil {
		rt.Stop()
		return SessionSnapshot{}, err
	}

	r.mu.Lock()
	r.sessions[rt.ID()] = &registryEntry{runtime: rt, lastSeen: r.now()}
	r.mu.Unlock()
	activeSessions.Inc()

	r.logger.Info("wizard session created", zap.String("session_id", rt.ID()), zap.String("country", snap.Country))
	return snap, nil
}

// Get devuelve el runtime de la sesión y renueva su actividad.
func (r *SessionRegistry) Get(id string) (*WizardRuntime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	entry.lastSeen = r.now()
	return entry.runtime, nil
}

func (r *SessionRegistry) Delete(id string) error {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	entry.runtime.Stop()
	activeSessions.Dec()
	r.logger.Info("wizard session deleted", zap.String("session_id", id))
	return nil
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep descarta las sesiones inactivas y devuelve cuántas eliminó.
func (r *SessionRegistry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*WizardRuntime
	for id, entry := range r.sessions {
		if entry.lastSeen.Before(cutoff) {
			idle = append(idle, entry.runtime)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, rt := range idle {
		rt.Stop()
		activeSessions.Dec()
		evictedSessions.Inc()
		r.logger.Info("wizard session evicted", zap.String("session_id", rt.ID()))
	}
	return len(idle)
}

// RunJanitor barre periódicamente hasta que se cancela ctx; al salir cierra todas las sesiones.
func (r *SessionRegistry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("idle sessions swept", zap.Int("count", n))
			}
		}
	}
}

func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, entry := range all {
		entry.runtime.Stop()
		activeSessions.Dec()
	}
}
