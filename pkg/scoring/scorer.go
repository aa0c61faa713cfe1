// Package scoring keeps the running score, the action combo and the
// persisted high score.
package scoring

import (
	"math"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/balance"
	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/model"
)

// ComboWindow is the longest gap between scoring actions that keeps a combo going.
const ComboWindow = 3 * time.Second

// Scorer is not safe for concurrent use.
type Scorer struct {
	score int
	high  int

	// combo multiplier in tenths so repeated +0.1 steps stay exact
	comboTenths int
	lastAction  time.Time

	table  *balance.Table
	store  Store
	logger logging.Logger
}

// NewScorer loads the high score from store. A failed load starts from 0.
func NewScorer(table *balance.Table, store Store, logger logging.Logger) *Scorer {
	s := &Scorer{
		comboTenths: 10,
		table:       table,
		store:       store,
		logger:      logging.OrDefault(logger).With(logging.Component("scoring")),
	}
	if store != nil {
		high, err := store.Load()
		if err != nil {
			s.logger.Warn("could not load high score", logging.Error(err))
		}
		s.high = high
	}
	return s
}

// Score returns the current score.
func (s *Scorer) Score() int { return s.score }

// HighScore returns the best score ever observed.
func (s *Scorer) HighScore() int { return s.high }

// Combo returns the current combo multiplier.
func (s *Scorer) Combo() float64 { return float64(s.comboTenths) / 10 }

// ScoreAction awards points for a successful action that touched affected
// nodes. A gap under ComboWindow since the previous scoring action grows the
// combo by 0.1; a longer gap resets it to 1.
func (s *Scorer) ScoreAction(action model.Action, faction model.Faction, affected int, now time.Time) int {
	base, _ := s.table.BaseScore(action, faction)

	if !s.lastAction.IsZero() && now.Sub(s.lastAction) < ComboWindow {
		s.comboTenths++
	} else {
		s.comboTenths = 10
	}
	s.lastAction = now

	points := int(math.Round(float64(base*s.comboTenths*affected) / 10))
	s.AddPoints(points)
	return points
}

// AddPoints adds to the score and persists a new high score.
func (s *Scorer) AddPoints(points int) {
	s.score += points
	if s.score <= s.high {
		return
	}
	s.high = s.score
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.high); err != nil {
		s.logger.Warn("could not save high score", logging.Error(err), logging.Int("high_score", s.high))
	}
}

// Reset zeroes the score and combo. The high score survives.
func (s *Scorer) Reset() {
	s.score = 0
	s.comboTenths = 10
	s.lastAction = time.Time{}
}
