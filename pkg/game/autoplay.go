package game

import (
	"github.com/dd0wney/cluso-netsim/pkg/engine"
	"github.com/dd0wney/cluso-netsim/pkg/model"
)

// Move is a dispatchable action and target.
type Move struct {
	Action model.Action
	NodeID int
}

// Moves lists every action and target the current faction could dispatch
// right now without being rejected, in action then registry order.
func (s *Session) Moves() []Move {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModePlaying {
		return nil
	}
	now := s.sched.Now()
	cds := s.engine.Cooldowns(s.faction)
	nodes := s.registry.Nodes()

	var moves []Move
	for _, a := range model.ActionsFor(s.faction) {
		rule, ok := engine.RuleFor(a)
		if !ok || !cds.Ready(a, now) {
			continue
		}
		cost, err := s.table.CostOf(a, s.faction)
		if err != nil || !s.pool.CanAfford(cost) {
			continue
		}
		for _, n := range nodes {
			if n.Interactable && rule.ValidSource(n.Status) {
				moves = append(moves, Move{Action: a, NodeID: n.ID})
			}
		}
	}
	return moves
}

// Autoplayer drives a session headlessly by dispatching random valid moves.
type Autoplayer struct {
	session *Session
	rng     Roller
}

// NewAutoplayer returns a bot for session.
func NewAutoplayer(session *Session, rng Roller) *Autoplayer {
	return &Autoplayer{session: session, rng: rng}
}

// Step dispatches one random valid move. It reports false when there was
// nothing to do.
func (a *Autoplayer) Step() (engine.Outcome, bool) {
	moves := a.session.Moves()
	if len(moves) == 0 {
		return engine.Outcome{}, false
	}
	i := int(a.rng.Float64() * float64(len(moves)))
	if i >= len(moves) {
		i = len(moves) - 1
	}
	m := moves[i]
	out, err := a.session.DispatchAction(m.Action, m.NodeID)
	if err != nil {
		return out, false
	}
	return out, true
}
