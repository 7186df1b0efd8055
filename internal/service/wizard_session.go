package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"uni-wizard/internal/domain"
	"uni-wizard/internal/scoring"
)

var (
	ErrInvalidTransition  = errors.New("action not allowed in current view")
	ErrValidationFailed   = errors.New("profile validation failed")
	ErrSubmitInFlight     = errors.New("recommendation request already in flight")
	ErrCountryUnavailable = errors.New("country not available")
	ErrUnknownCluster     = errors.New("cluster not in catalog")
	ErrEmptyQuestion      = errors.New("question is empty")
)

// View es la pantalla en la que está el wizard.
type View string

const (
	ViewLanding View = "landing"
	ViewIntake  View = "intake"
	ViewResults View = "results"
)

// Msg es el resultado de un efecto asíncrono; se aplica con WizardSession.Update.
type Msg interface{}

// Cmd es un efecto asíncrono. Devuelve nil si no hay nada que aplicar.
type Cmd func(ctx context.Context) Msg

type catalogLoadedMsg struct {
	country  string
	clusters []domain.ClusterOption
	err      error
}

type recommendationsMsg struct {
	requestID string
	resp      scoring.RecommendResponse
	err       error
}

type botReplyMsg struct {
	epoch uint64
	text  string
}

type queuedQuestion struct {
	question string
	reply    string
}

// WizardOptions agrupa los parámetros de una sesión.
type WizardOptions struct {
	DefaultCountry string
	ReplyDelay     time.Duration
}

// WizardSession es la máquina de estados de una sesión de orientación.
// No es segura para uso concurrente: la usa un solo dueño (WizardRuntime o RunSync).
type WizardSession struct {
	id      string
	scorer  scoring.Client
	advisor *Advisor
	delay   time.Duration
	logger  *zap.Logger

	view    View
	step    int
	country string
	profile domain.Profile

	academicErrors   FieldErrors
	preferenceErrors FieldErrors

	catalogs       map[string][]domain.ClusterOption
	catalogLoading map[string]bool
	catalogErrors  map[string]string

	recs      RecommendationSession
	loading   bool
	inflight  string
	resultErr string

	epoch      uint64
	botOpen    bool
	transcript []domain.TranscriptEntry
	botPending bool
	botQueue   []queuedQuestion
}

func NewWizardSession(scorer scoring.Client, advisor *Advisor, opts WizardOptions, logger *zap.Logger) *WizardSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	if advisor == nil {
		advisor = NewAdvisor(DefaultAdvisoryPolicy())
	}
	country := strings.ToUpper(strings.TrimSpace(opts.DefaultCountry))
	if c, ok := domain.LookupCountry(country); !ok || !c.Available {
		country = "UK"
	}
	id := uuid.NewString()
	return &WizardSession{
		id:             id,
		scorer:         scorer,
		advisor:        advisor,
		delay:          opts.ReplyDelay,
		logger:         logger.With(zap.String("session_id", id)),
		view:           ViewLanding,
		step:           1,
		country:        country,
		profile:        domain.DefaultProfile(),
		catalogs:       make(map[string][]domain.ClusterOption),
		catalogLoading: make(map[string]bool),
		catalogErrors:  make(map[string]string),
	}
}

func (s *WizardSession) ID() string { return s.id }

func (s *WizardSession) View() View { return s.view }

func (s *WizardSession) Step() int { return s.step }

func (s *WizardSession) Country() string { return s.country }

func (s *WizardSession) Profile() domain.Profile { return s.profile.Clone() }

func (s *WizardSession) Transcript() []domain.TranscriptEntry {
	return append([]domain.TranscriptEntry{}, s.transcript...)
}

// Init pide el catálogo de clusters del país inicial.
func (s *WizardSession) Init() Cmd {
	return s.ensureCatalog(s.country)
}

// SelectCountry cambia el destino. Solo se permite en la pantalla inicial.
func (s *WizardSession) SelectCountry(code string) (Cmd, error) {
	if s.view != ViewLanding {
		return nil, ErrInvalidTransition
	}
	c, ok := domain.LookupCountry(code)
	if !ok || !c.Available {
		return nil, fmt.Errorf("%w: %s", ErrCountryUnavailable, code)
	}
	if c.Code != s.country {
		s.country = c.Code
		// Los clusters son propios de cada país.
		s.profile.SubjectClusters = []string{}
	}
	return s.ensureCatalog(s.country), nil
}

// ensureCatalog devuelve el fetch del catálogo si todavía no está cargado ni en curso.
// Un fetch fallido no se cachea: volver a elegir el país lo reintenta.
func (s *WizardSession) ensureCatalog(country string) Cmd {
	if _, ok := s.catalogs[country]; ok || s.catalogLoading[country] || s.scorer == nil {
		return nil
	}
	s.catalogLoading[country] = true
	delete(s.catalogErrors, country)
	scorer := s.scorer
	return func(ctx context.Context) Msg {
		clusters, err := scorer.ListClusters(ctx, country)
		return catalogLoadedMsg{country: country, clusters: clusters, err: err}
	}
}

// Start pasa de Landing a Intake(1).
func (s *WizardSession) Start() error {
	if s.view != ViewLanding {
		return ErrInvalidTransition
	}
	s.view = ViewIntake
	s.step = 1
	return nil
}

// UpdateProfile aplica un cambio parcial al formulario.
func (s *WizardSession) UpdateProfile(patch domain.ProfilePatch) error {
	if s.view != ViewIntake {
		return ErrInvalidTransition
	}
	patch.Apply(&s.profile)
	return nil
}

// ToggleCluster agrega o quita un cluster del catálogo cargado del país actual.
// Quitar uno ya seleccionado siempre se permite.
func (s *WizardSession) ToggleCluster(id string) (bool, error) {
	if s.view != ViewIntake {
		return false, ErrInvalidTransition
	}
	id = strings.TrimSpace(id)
	if s.profile.HasCluster(id) {
		return s.profile.ToggleCluster(id), nil
	}
	if !s.catalogHas(id) {
		return false, fmt.Errorf("%w: %q", ErrUnknownCluster, id)
	}
	return s.profile.ToggleCluster(id), nil
}

func (s *WizardSession) catalogHas(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range s.catalogs[s.country] {
		if c.SubjectCluster == id {
			return true
		}
	}
	return false
}

// NextStep intenta pasar a Intake(2); con errores de la etapa 1 se queda en Intake(1).
func (s *WizardSession) NextStep() error {
	if s.view != ViewIntake || s.step != 1 {
		return ErrInvalidTransition
	}
	s.academicErrors = ValidateAcademicProfile(s.profile)
	if !s.academicErrors.Empty() {
		return ErrValidationFailed
	}
	s.step = 2
	return nil
}

// BackToProfile vuelve de Intake(2) a Intake(1). Abandona un pedido en curso.
func (s *WizardSession) BackToProfile() error {
	if s.view != ViewIntake || s.step != 2 {
		return ErrInvalidTransition
	}
	s.abandonRequest()
	s.step = 1
	return nil
}

// Submit valida ambas etapas y devuelve el pedido de scoring.
// Mientras hay un pedido en curso es un no-op que devuelve ErrSubmitInFlight.
func (s *WizardSession) Submit() (Cmd, error) {
	if s.view != ViewIntake || s.step != 2 {
		return nil, ErrInvalidTransition
	}
	if s.loading {
		return nil, ErrSubmitInFlight
	}

	s.academicErrors, s.preferenceErrors = ValidateForSubmission(s.profile)
	if !s.academicErrors.Empty() {
		s.step = 1
		return nil, ErrValidationFailed
	}
	if !s.preferenceErrors.Empty() {
		return nil, ErrValidationFailed
	}

	req := buildRecommendRequest(s.country, s.profile)
	requestID := uuid.NewString()
	s.loading = true
	s.inflight = requestID
	s.resultErr = ""

	s.logger.Info("requesting recommendations",
		zap.String("request_id", requestID),
		zap.String("country", req.CountryCode),
		zap.Int("clusters", len(req.SubjectClusters)),
		zap.Int("requested_count", req.RequestedCount),
	)

	scorer := s.scorer
	return func(ctx context.Context) Msg {
		if scorer == nil {
			return recommendationsMsg{requestID: requestID, err: errors.New("scoring client not configured")}
		}
		resp, err := scorer.Recommend(ctx, req)
		return recommendationsMsg{requestID: requestID, resp: resp, err: err}
	}, nil
}

// buildRecommendRequest asume un perfil ya validado.
func buildRecommendRequest(country string, p domain.Profile) scoring.RecommendRequest {
	num := func(raw string) float64 {
		v, _ := parseNumber(raw)
		return v
	}
	return scoring.RecommendRequest{
		Name:              strings.TrimSpace(p.Name),
		CountryCode:       country,
		CGPA:              num(p.CGPA),
		BacklogsCount:     clampInt(num(p.Backlogs), 0, MaxBacklogs),
		EnglishProofType:  string(p.EnglishProofType),
		EnglishScore:      num(p.EnglishScore),
		BudgetLakhs:       num(p.BudgetLakhs),
		WorkExYears:       num(p.WorkExYears),
		NonMathBackground: p.NonMathBackground,
		SubjectClusters:   append([]string{}, p.SubjectClusters...),
		TargetIntake:      strings.TrimSpace(p.TargetIntake),
		RequestedCount:    clampInt(num(p.MaxUniversities), MinRequestedUniversities, MaxRequestedUniversities),
	}
}

// clampInt acota v a [lo, hi] antes de convertirlo, así un float fuera de rango nunca desborda int.
func clampInt(v float64, lo, hi int) int {
	switch {
	case math.IsNaN(v) || v < float64(lo):
		return lo
	case v > float64(hi):
		return hi
	}
	return int(math.Trunc(v))
}

func (s *WizardSession) abandonRequest() {
	if s.inflight != "" {
		s.logger.Debug("abandoning in-flight recommendation request", zap.String("request_id", s.inflight))
	}
	s.inflight = ""
	s.loading = false
}

// BackToForm vuelve de Results a Intake(2).
func (s *WizardSession) BackToForm() error {
	if s.view != ViewResults {
		return ErrInvalidTransition
	}
	s.view = ViewIntake
	s.step = 2
	return nil
}

// Reset vuelve a Landing desde cualquier estado. El país y los catálogos se conservan.
func (s *WizardSession) Reset() {
	s.abandonRequest()
	s.view = ViewLanding
	s.step = 1
	s.profile = domain.DefaultProfile()
	s.academicErrors = nil
	s.preferenceErrors = nil
	s.recs.Clear()
	s.resultErr = ""

	s.epoch++
	s.botOpen = false
	s.transcript = nil
	s.botPending = false
	s.botQueue = nil
}

func (s *WizardSession) SelectRecommendation(id domain.CourseID) error {
	return s.recs.Select(id)
}

func (s *WizardSession) ToggleCompare(id domain.CourseID) (bool, error) {
	return s.recs.ToggleCompare(id)
}

func (s *WizardSession) ClearCompare() {
	s.recs.ClearCompare()
}

// OpenBot abre el help bot; la primera vez agrega el saludo. Solo existe en Results.
func (s *WizardSession) OpenBot() error {
	if s.view != ViewResults {
		return ErrInvalidTransition
	}
	s.openBot()
	return nil
}

func (s *WizardSession) openBot() {
	s.botOpen = true
	if len(s.transcript) == 0 {
		s.transcript = append(s.transcript, domain.TranscriptEntry{Speaker: domain.SpeakerBot, Text: s.advisor.Greeting()})
	}
}

func (s *WizardSession) CloseBot() {
	s.botOpen = false
}

// SendBotMessage agrega la pregunta y programa la respuesta. Si hay una respuesta
// pendiente, la pregunta espera su turno para que cada respuesta siga a su pregunta.
func (s *WizardSession) SendBotMessage(question string) (Cmd, error) {
	if s.view != ViewResults {
		return nil, ErrInvalidTransition
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	s.openBot()

	reply := s.advisor.Reply(question, s.advisoryContext())
	s.logger.Debug("advisory question", zap.String("rule", s.advisor.RuleFor(question)))

	if s.botPending {
		s.botQueue = append(s.botQueue, queuedQuestion{question: question, reply: reply})
		return nil, nil
	}
	return s.ask(question, reply), nil
}

func (s *WizardSession) ask(question, reply string) Cmd {
	s.transcript = append(s.transcript, domain.TranscriptEntry{Speaker: domain.SpeakerUser, Text: question})
	s.botPending = true
	epoch, delay := s.epoch, s.delay
	return func(ctx context.Context) Msg {
		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
			}
		}
		return botReplyMsg{epoch: epoch, text: reply}
	}
}

func (s *WizardSession) advisoryContext() AdvisoryContext {
	return AdvisoryContext{
		CountryCode:  s.country,
		Profile:      s.profile.Clone(),
		GlobalAdvice: s.recs.GlobalAdvice(),
		Counts:       s.recs.Counts(),
	}
}

// Update aplica el resultado de un efecto. Los resultados de un pedido abandonado
// o de antes de un reset se descartan.
func (s *WizardSession) Update(msg Msg) Cmd {
	switch m := msg.(type) {
	case catalogLoadedMsg:
		delete(s.catalogLoading, m.country)
		if m.err != nil {
			s.logger.Warn("cluster catalog fetch failed", zap.String("country", m.country), zap.Error(m.err))
			s.catalogErrors[m.country] = "Could not load subject clusters. Switch country to retry."
			return nil
		}
		clusters := m.clusters
		if clusters == nil {
			clusters = []domain.ClusterOption{}
		}
		s.catalogs[m.country] = clusters
		delete(s.catalogErrors, m.country)
		return nil

	case recommendationsMsg:
		if m.requestID != s.inflight || s.inflight == "" {
			s.logger.Debug("dropping stale recommendation response", zap.String("request_id", m.requestID))
			return nil
		}
		s.inflight = ""
		s.loading = false
		s.view = ViewResults
		if m.err != nil {
			s.logger.Warn("recommendation request failed", zap.String("request_id", m.requestID), zap.Error(m.err))
			s.recs.Clear()
			s.resultErr = "Could not fetch recommendations. Go back to the form and try again."
			return nil
		}
		s.recs.Replace(m.resp.Recommendations, m.resp.GlobalAdvice)
		s.recs.ClearCompare()
		s.resultErr = ""
		counts := s.recs.Counts()
		s.logger.Info("recommendations received",
			zap.String("request_id", m.requestID),
			zap.Int("count", s.recs.Len()),
			zap.Int("safe", counts.Safe),
			zap.Int("moderate", counts.Moderate),
			zap.Int("ambitious", counts.Ambitious),
		)
		return nil

	case botReplyMsg:
		if m.epoch != s.epoch || !s.botPending {
			s.logger.Debug("dropping stale advisory reply")
			return nil
		}
		s.transcript = append(s.transcript, domain.TranscriptEntry{Speaker: domain.SpeakerBot, Text: m.text})
		s.botPending = false
		if len(s.botQueue) == 0 {
			return nil
		}
		next := s.botQueue[0]
		s.botQueue = s.botQueue[1:]
		return s.ask(next.question, next.reply)
	}
	return nil
}

// RunSync ejecuta un Cmd y sus continuaciones en el goroutine actual.
func RunSync(ctx context.Context, s *WizardSession, cmd Cmd) {
	for cmd != nil {
		msg := cmd(ctx)
		if msg == nil {
			return
		}
		cmd = s.Update(msg)
	}
}

// SessionSnapshot es la vista serializable del estado de la sesión.
type SessionSnapshot struct {
	ID                   string                   `json:"id"`
	View                 View                     `json:"view"`
	Step                 int                      `json:"step"`
	Country              string                   `json:"country"`
	Profile              domain.Profile           `json:"profile"`
	AcademicErrors       FieldErrors              `json:"academic_errors"`
	PreferenceErrors     FieldErrors              `json:"preference_errors"`
	Clusters             []domain.ClusterOption   `json:"clusters"`
	CatalogLoading       bool                     `json:"catalog_loading"`
	CatalogError         string                   `json:"catalog_error,omitempty"`
	Loading              bool                     `json:"loading"`
	Error                string                   `json:"error,omitempty"`
	Recommendations      []domain.Recommendation  `json:"recommendations"`
	GlobalAdvice         *domain.GlobalAdvice     `json:"global_advice"`
	ActiveRecommendation *domain.Recommendation   `json:"active_recommendation"`
	Counts               domain.BandCounts        `json:"counts"`
	CompareIDs           []domain.CourseID        `json:"compare_ids"`
	Compare              []domain.Recommendation  `json:"compare"`
	BotOpen              bool                     `json:"bot_open"`
	BotTyping            bool                     `json:"bot_typing"`
	Transcript           []domain.TranscriptEntry `json:"transcript"`
	PendingQuestions     []string                 `json:"pending_questions"`
	QuickQuestions       []string                 `json:"quick_questions"`
}

func (s *WizardSession) Snapshot() SessionSnapshot {
	clusters := append([]domain.ClusterOption{}, s.catalogs[s.country]...)
	return SessionSnapshot{
		ID:                   s.id,
		View:                 s.view,
		Step:                 s.step,
		Country:              s.country,
		Profile:              s.profile.Clone(),
		AcademicErrors:       copyErrors(s.academicErrors),
		PreferenceErrors:     copyErrors(s.preferenceErrors),
		Clusters:             clusters,
		CatalogLoading:       s.catalogLoading[s.country],
		CatalogError:         s.catalogErrors[s.country],
		Loading:              s.loading,
		Error:                s.resultErr,
		Recommendations:      s.recs.Recommendations(),
		GlobalAdvice:         s.recs.GlobalAdvice(),
		ActiveRecommendation: s.recs.Active(),
		Counts:               s.recs.Counts(),
		CompareIDs:           s.recs.CompareIDs(),
		Compare:              s.recs.CompareRecommendations(),
		BotOpen:              s.botOpen,
		BotTyping:            s.botPending,
		Transcript:           s.Transcript(),
		PendingQuestions:     s.PendingQuestions(),
		QuickQuestions:       QuickQuestions(),
	}
}

// PendingQuestions son las preguntas enviadas que todavía esperan turno, en orden.
func (s *WizardSession) PendingQuestions() []string {
	out := make([]string, 0, len(s.botQueue))
	for _, q := range s.botQueue {
		out = append(out, q.question)
	}
	return out
}

func copyErrors(in FieldErrors) FieldErrors {
	out := FieldErrors{}
	for k, v := range in {
		out[k] = v
	}
	return out
}
