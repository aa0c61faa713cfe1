// Package game is the authoritative session state machine. A Session owns
// the node registry, resource pool, engine, threat manager, objective
// tracker and scorer, and serializes every inbound call, periodic tick and
// deferred cascade step behind one mutex.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/audit"
	"github.com/dd0wney/cluso-netsim/pkg/balance"
	"github.com/dd0wney/cluso-netsim/pkg/clock"
	"github.com/dd0wney/cluso-netsim/pkg/engine"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/metrics"
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/network"
	"github.com/dd0wney/cluso-netsim/pkg/objective"
	"github.com/dd0wney/cluso-netsim/pkg/pubsub"
	"github.com/dd0wney/cluso-netsim/pkg/resources"
	"github.com/dd0wney/cluso-netsim/pkg/scoring"
	"github.com/dd0wney/cluso-netsim/pkg/threat"
)

var (
	// ErrNotPlaying rejects dispatches outside PLAYING.
	ErrNotPlaying = errors.New("game is not running")
	// ErrAlreadyStarted rejects StartGame and StartTutorial outside IDLE.
	ErrAlreadyStarted = errors.New("game already started")
	// ErrNotOver rejects PlayAgain before the game has ended.
	ErrNotOver = errors.New("game is not over")
	// ErrGameOver rejects faction switches after the game has ended.
	ErrGameOver = errors.New("game is over")
	// ErrTransitioning rejects a faction toggle while one is ramping.
	ErrTransitioning = errors.New("faction switch in progress")
	// ErrWrongFaction rejects selecting an action the current faction cannot use.
	ErrWrongFaction = errors.New("action not available to current faction")
	// ErrAlreadyRunning rejects a second Start.
	ErrAlreadyRunning = errors.New("session already running")
)

const (
	rampStep = 4
	rampFull = 100

	// successful Black Hat actions on nodes at least this hardened count as bypasses
	bypassDefense = 60

	whiteWinIntegrity = 80
)

// Roller draws uniform floats in [0, 1).
type Roller interface {
	Float64() float64
}

// Deps are the session's injectable collaborators. Every field is optional.
type Deps struct {
	Scheduler clock.Scheduler
	Rand      Roller
	Store     scoring.Store
	Metrics   *metrics.Registry
	Bus       *pubsub.Bus
	Logger    logging.Logger
	// Audit receives a trail of actions, mode changes, faction switches
	// and completed objectives. Nil disables it.
	Audit audit.Recorder
	// NewID generates threat, objective and audit ids; defaults to uuids.
	NewID func() string
}

type stateTimer struct {
	status model.NodeStatus
	since  time.Time
}

// statuses whose uninterrupted hold accrues duration objectives
var heldStatuses = map[model.Faction][]model.NodeStatus{
	model.WhiteHat: {model.StatusMonitoring},
	model.BlackHat: {model.StatusCompromised, model.StatusBreached},
}

// Session is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	cfg      Config
	sched    clock.Scheduler
	registry *network.Registry
	table    *balance.Table
	pool     *resources.Pool
	engine   *engine.Engine
	threats  *threat.Manager
	tracker  *objective.Tracker
	scorer   *scoring.Scorer
	metrics  *metrics.Registry
	bus      *pubsub.Bus
	logger   logging.Logger
	audit    audit.Recorder
	newID    func() string

	ownedSched *clock.Real
	ownsBus    bool

	mode           Mode
	faction        model.Faction
	transitioning  bool
	rampProgress   int
	rampTimer      clock.Timer
	rampGen        uint64 // ticks from an older ramp are ignored
	selectedNode   int
	selectedAction model.Action
	actionSelected bool
	tutorial       *Tutorial
	log            ActionLog
	timers         map[int]stateTimer
	backedUp       map[int]bool

	running     bool
	tickPanics  int
	wallStart   time.Time
	tickers     []clock.Timer
	unsubscribe func()
}

// NewSession builds an idle White Hat session from cfg.
func NewSession(cfg Config, deps Deps) (*Session, error) {
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	topo := network.DefaultTopology()
	if cfg.TopologyFile != "" {
		t, err := network.LoadTopology(cfg.TopologyFile)
		if err != nil {
			return nil, fmt.Errorf("load topology: %w", err)
		}
		topo = t
	}
	registry, err := network.New(topo, deps.Logger)
	if err != nil {
		return nil, err
	}

	table := balance.Default(deps.Logger)
	if cfg.BalanceFile != "" {
		if table, err = balance.LoadFile(cfg.BalanceFile, deps.Logger); err != nil {
			return nil, fmt.Errorf("load balance: %w", err)
		}
	}

	scope, err := engine.ParseCooldownScope(cfg.CooldownScope)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		sched:    deps.Scheduler,
		registry: registry,
		table:    table,
		pool:     resources.NewPool(cfg.Regen),
		metrics:  deps.Metrics,
		bus:      deps.Bus,
		logger:   logging.OrDefault(deps.Logger).With(logging.Component("game")),
		audit:    deps.Audit,
		newID:    deps.NewID,
		mode:     ModeIdle,
		faction:  model.WhiteHat,
		timers:   make(map[int]stateTimer),
		backedUp: make(map[int]bool),
	}
	if s.sched == nil {
		s.ownedSched = clock.NewReal()
		s.sched = s.ownedSched
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	if s.bus == nil {
		s.bus = pubsub.NewBus(pubsub.DefaultBuffer, s.sched.Now, deps.Logger)
		s.ownsBus = true
	}

	rng := deps.Rand
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	store := deps.Store
	if store == nil {
		if cfg.HighScoreFile != "" {
			store = scoring.NewFileStore(cfg.HighScoreFile)
		} else {
			store = &scoring.MemoryStore{}
		}
	}

	s.engine = engine.New(table, registry, s.pool, s.sched, rng, engine.Options{
		Scope:            scope,
		Guard:            s.guard,
		OnCascadeStep:    s.onCascadeStep,
		OnCascadeDropped: s.onCascadeDropped,
		Logger:           deps.Logger,
	})
	s.threats = threat.NewManager(table, rng, threat.Options{
		SpawnChance: cfg.SpawnChance,
		NewID:       deps.NewID,
		Logger:      deps.Logger,
	})
	s.scorer = scoring.NewScorer(table, store, deps.Logger)
	s.tracker = objective.NewTracker(s.scorer, rng, registry.IDs, objective.Options{
		NewID:  deps.NewID,
		Logger: deps.Logger,
	})

	registry.Observe(s.onStatusChanged)
	s.unsubscribe = s.threats.Subscribe(s.onThreats)
	registry.ResetAll(s.faction)
	s.metrics.SetGameMode(string(s.mode))

	s.logger.Info("session created",
		logging.Int("nodes", registry.Len()),
		logging.String("cooldown_scope", string(scope)),
		logging.Float64("spawn_chance", cfg.SpawnChance))
	return s, nil
}

// Bus returns the event bus snapshots, log lines and threats are published on.
func (s *Session) Bus() *pubsub.Bus { return s.bus }

// Metrics returns the session's metrics registry.
func (s *Session) Metrics() *metrics.Registry { return s.metrics }

// Config returns the effective configuration.
func (s *Session) Config() Config { return s.cfg }

// HealthState is the session's view for liveness and readiness probes.
type HealthState struct {
	Running       bool
	Mode          Mode
	TickPanics    int
	DroppedEvents uint64
}

// Health reports whether the session is ticking and how many ticks have failed.
func (s *Session) Health() HealthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HealthState{
		Running:       s.running,
		Mode:          s.mode,
		TickPanics:    s.tickPanics,
		DroppedEvents: s.bus.Dropped(),
	}
}

// Start registers the periodic ticks on the scheduler.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.wallStart = time.Now()

	t := s.cfg.Ticks
	s.tickers = []clock.Timer{
		s.sched.Every(t.Threat, s.ticker("threat", s.threatTick)),
		s.sched.Every(t.Duration, s.ticker("duration", s.durationTick)),
		s.sched.Every(t.Regen, s.ticker("regen", s.regenTick)),
		s.sched.Every(t.Feedback, s.ticker("feedback", s.feedbackTick)),
		s.sched.Every(t.Cleanup, s.ticker("cleanup", s.cleanupTick)),
	}
	s.logger.Info("session started")
	return nil
}

// Stop cancels every tick and pending cascade. It must not be called from a
// tick or cascade callback.
func (s *Session) Stop() {
	s.mu.Lock()
	for _, t := range s.tickers {
		t.Stop()
	}
	s.tickers = nil
	s.cancelRamp()
	s.engine.AdvanceEpoch()
	s.running = false
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.mu.Unlock()

	if s.ownedSched != nil {
		s.ownedSched.Stop()
	}
	if s.ownsBus {
		s.bus.Shutdown()
	}
	s.logger.Info("session stopped")
}

// DispatchAction resolves action against targetID for the current faction.
// The returned error is non-nil only when nothing was attempted; rejected
// and failed actions are reported through the Outcome.
func (s *Session) DispatchAction(action model.Action, targetID int) (engine.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.sched.Now()
	if s.mode != ModePlaying {
		s.addLog(now, fmt.Sprintf("Cannot run %s: game is not running", action))
		return engine.Outcome{Action: action, Faction: s.faction, TargetID: targetID, Err: ErrNotPlaying}, ErrNotPlaying
	}

	var pending []string
	if s.faction == model.WhiteHat {
		pending = s.threats.LiveOn(targetID)
	}
	out := s.engine.Resolve(action, targetID, s.faction, now)
	s.metrics.RecordAction(s.faction.String(), action.String(), strings.ToLower(out.Result.String()), out.Probability, out.Resolved())
	msg := out.Message(s.nodeName(targetID))
	s.addLog(now, msg)

	if out.Succeeded() {
		points := s.scorer.ScoreAction(action, s.faction, out.Affected(), now)
		s.addLog(now, fmt.Sprintf("+%d points (x%.1f combo)", points, s.scorer.Combo()))
		s.afterSuccess(out, pending, now)
		s.advanceTutorial(Event{Kind: StepPerformAction, NodeID: targetID, Action: action, Status: out.PrevStatus}, now)
	}

	s.record(now, &audit.Event{
		Kind:        audit.KindAction,
		Action:      action.String(),
		NodeID:      targetID,
		Result:      out.Result.String(),
		Probability: out.Probability,
		Draw:        out.Draw,
		PrevStatus:  out.PrevStatus,
		NewStatus:   out.NewStatus,
		Message:     msg,
	})
	s.settle(now)
	return out, nil
}

// afterSuccess feeds the outcome-driven objective counters. Status-driven
// counters arrive through onStatusChanged during resolution. pending lists
// the threats that were live on the target before the action resolved.
func (s *Session) afterSuccess(out engine.Outcome, pending []string, now time.Time) {
	target := out.TargetID
	switch s.faction {
	case model.WhiteHat:
		if blocked := s.threats.BlockAll(pending); len(blocked) > 0 {
			s.addLog(now, fmt.Sprintf("Blocked %d threat(s) on %s", len(blocked), s.nodeName(target)))
			s.progress(objective.ThreatsBlocked, float64(len(blocked)), &target, now)
		}
	case model.BlackHat:
		if n, ok := s.registry.Get(target); ok && n.Defense >= bypassDefense {
			s.progress(objective.DefenseBypassed, 1, &target, now)
		}
	}
}

// SelectNode marks id as selected and highlights its neighbours. 0 clears
// the selection.
func (s *Session) SelectNode(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.Select(id); err != nil {
		return err
	}
	now := s.sched.Now()
	s.selectedNode = id
	if id == 0 {
		s.registry.Highlight()
	} else {
		s.registry.Highlight(s.registry.NeighborsOf(id)...)
		node, _ := s.registry.Get(id)
		s.advanceTutorial(Event{Kind: StepSelectNode, NodeID: id, Status: node.Status}, now)
	}
	s.settle(now)
	return nil
}

// SelectAction arms action for the next dispatch.
func (s *Session) SelectAction(action model.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !action.Valid() || action.Faction() != s.faction {
		return fmt.Errorf("%s: %w", action, ErrWrongFaction)
	}
	now := s.sched.Now()
	s.selectedAction = action
	s.actionSelected = true
	s.advanceTutorial(Event{Kind: StepSelectAction, Action: action}, now)
	s.settle(now)
	return nil
}

// ToggleFaction starts the switch ramp. The faction flips, and every
// faction-scoped piece of state resets, once the ramp completes.
func (s *Session) ToggleFaction() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transitioning {
		return ErrTransitioning
	}
	if s.mode.Over() {
		return ErrGameOver
	}
	now := s.sched.Now()
	s.transitioning = true
	s.rampProgress = 0
	s.rampGen++
	gen := s.rampGen
	s.rampTimer = s.sched.Every(s.cfg.Ticks.Ramp, s.ticker("ramp", func(now time.Time) bool {
		return s.rampTick(gen, now)
	}))
	s.addLog(now, "Switching to "+factionLabel(s.faction.Opponent())+"...")
	s.settle(now)
	return nil
}

// StartGame moves IDLE to PLAYING.
func (s *Session) StartGame() error {
	return s.begin(false)
}

// StartTutorial moves IDLE to PLAYING with the faction's tutorial active.
func (s *Session) StartTutorial() error {
	return s.begin(true)
}

func (s *Session) begin(tutorial bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeIdle {
		return ErrAlreadyStarted
	}
	now := s.sched.Now()
	s.setMode(ModePlaying)
	s.pool.Refill()
	s.engine.ClearCooldowns()
	s.resetForFaction(now)
	s.tutorial = nil
	if tutorial {
		s.tutorial = NewTutorial(s.faction)
	}
	s.addLog(now, "Game started as "+factionLabel(s.faction))
	if s.tutorial != nil {
		s.addLog(now, "Tutorial: "+s.tutorial.Current().Text)
	}
	s.settle(now)
	return nil
}

// ResetGame returns to an idle White Hat session. The high score survives.
func (s *Session) ResetGame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(s.sched.Now())
}

// PlayAgain resets a finished game.
func (s *Session) PlayAgain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mode.Over() {
		return ErrNotOver
	}
	s.reset(s.sched.Now())
	return nil
}

func (s *Session) reset(now time.Time) {
	s.cancelRamp()
	s.faction = model.WhiteHat
	s.setMode(ModeIdle)
	s.pool.Refill()
	s.engine.ClearCooldowns()
	s.resetForFaction(now)
	s.tutorial = nil
	s.log.Clear()
	s.addLog(now, "Game reset")
	s.settle(now)
}

// AdvanceTutorialIfMatched advances the tutorial by one step when ev
// matches the current step. Selections and dispatches already feed their
// own events.
func (s *Session) AdvanceTutorialIfMatched(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.sched.Now()
	advanced := s.advanceTutorial(ev, now)
	if advanced {
		s.settle(now)
	}
	return advanced
}

func (s *Session) advanceTutorial(ev Event, now time.Time) bool {
	if s.tutorial == nil || s.tutorial.Done() || !s.tutorial.Advance(ev) {
		return false
	}
	s.addLog(now, "Tutorial: "+s.tutorial.Current().Text)
	if s.tutorial.Done() {
		s.logger.Info("tutorial completed", logging.Faction(s.faction))
	}
	return true
}

// resetForFaction re-seeds everything scoped to the current faction and
// invalidates in-flight cascades.
func (s *Session) resetForFaction(now time.Time) {
	s.engine.AdvanceEpoch()
	s.registry.ResetAll(s.faction)
	s.selectedNode = 0
	s.actionSelected = false
	clear(s.timers)
	clear(s.backedUp)
	s.scorer.Reset()
	s.threats.Reset()
	if s.mode == ModePlaying {
		s.tracker.Initialize(s.faction, now)
		s.refreshIntegrity(now)
	} else {
		s.tracker.Reset()
	}
}

func (s *Session) completeToggle(now time.Time) {
	s.cancelRamp()
	s.faction = s.faction.Opponent()
	s.resetForFaction(now)
	s.engine.OnFactionChanged()
	s.metrics.RecordFactionSwitch()
	if s.tutorial != nil {
		s.tutorial = NewTutorial(s.faction)
	}
	s.addLog(now, "Now playing as "+factionLabel(s.faction))
	s.record(now, &audit.Event{Kind: audit.KindFaction, Message: "now playing as " + s.faction.String()})
	s.logger.Info("faction switched", logging.Faction(s.faction), logging.Epoch(s.engine.Epoch()))
}

func (s *Session) cancelRamp() {
	if s.rampTimer != nil {
		s.rampTimer.Stop()
		s.rampTimer = nil
	}
	s.rampGen++
	s.transitioning = false
	s.rampProgress = 0
}

func (s *Session) setMode(m Mode) {
	if s.mode == m {
		return
	}
	s.logger.Info("mode changed", logging.String("from", string(s.mode)), logging.String("to", string(m)))
	s.record(s.sched.Now(), &audit.Event{Kind: audit.KindMode, Message: string(s.mode) + " -> " + string(m)})
	s.mode = m
	s.metrics.SetGameMode(string(m))
}

// record stamps e with the session's clock, faction and score and hands it
// to the audit trail. Trail failures are logged, never fatal.
func (s *Session) record(now time.Time, e *audit.Event) {
	if s.audit == nil {
		return
	}
	e.Timestamp = now
	e.Faction = s.faction
	e.Score = s.scorer.Score()
	if s.newID != nil {
		e.ID = s.newID()
	}
	if err := s.audit.Record(e); err != nil {
		s.logger.Warn("audit record failed", logging.String("kind", string(e.Kind)), logging.Error(err))
	}
}

// evaluate applies the win/loss rules. The White Hat loss is checked before
// the Black Hat win.
func (s *Session) evaluate(now time.Time) {
	integrity := Integrity(s.registry.Nodes())

	var next Mode
	var msg string
	switch {
	case s.faction == model.WhiteHat && integrity <= 0:
		next, msg = ModeGameOverLoss, "Network lost. Game over."
	case s.faction == model.WhiteHat && s.tracker.AllPrimaryCompleted() && integrity > whiteWinIntegrity:
		next, msg = ModeWhiteHatWin, "Network secured. White Hat wins!"
	case s.faction == model.BlackHat && (s.tracker.AllPrimaryCompleted() || integrity <= 0):
		next, msg = ModeBlackHatWin, "Network owned. Black Hat wins!"
	default:
		return
	}

	s.cancelRamp()
	s.engine.AdvanceEpoch()
	s.setMode(next)
	s.addLog(now, msg)
}

// settle runs after every mutation: win/loss, gauges, snapshot.
func (s *Session) settle(now time.Time) {
	if s.mode == ModePlaying {
		s.evaluate(now)
	}

	nodes := s.registry.Nodes()
	counts := make(map[string]int, len(nodes))
	for _, n := range nodes {
		counts[string(n.Status)]++
	}
	statuses := model.AllStatuses()
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	res := s.pool.Snapshot()
	s.metrics.UpdateResources(res.Energy, res.Bandwidth, res.Processing)
	s.metrics.UpdateScore(s.scorer.Score(), s.scorer.HighScore(), s.scorer.Combo())
	s.metrics.UpdateNetwork(Integrity(nodes), names, counts)

	if s.bus.SubscriberCount(pubsub.TopicSnapshot) > 0 {
		s.bus.Publish(pubsub.TopicSnapshot, s.snapshot(now))
	}
}

func (s *Session) addLog(now time.Time, msg string) {
	line := s.log.Add(now, msg)
	s.bus.Publish(pubsub.TopicLog, line)
}

func (s *Session) nodeName(id int) string {
	if n, ok := s.registry.Get(id); ok {
		return n.Name
	}
	return fmt.Sprintf("node %d", id)
}

func factionLabel(f model.Faction) string {
	if f == model.BlackHat {
		return "Black Hat"
	}
	return "White Hat"
}
