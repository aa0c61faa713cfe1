// Package objective tracks per-faction objectives and their requirements,
// pays out completion rewards and generates follow-up objectives.
package objective

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/model"
)

// Status is the lifecycle state of an objective.
type Status string

const (
	InProgress Status = "IN_PROGRESS"
	Completed  Status = "COMPLETED"
)

// MinActive is the number of in-progress objectives below which a
// completion generates a follow-up.
const MinActive = 3

// Requirement is one measurable sub-goal of an objective.
type Requirement struct {
	Type         RequirementType `json:"type"`
	Target       float64         `json:"target"`
	Current      float64         `json:"current"`
	TargetNodeID *int            `json:"targetNodeId,omitempty"`
	LastUpdate   float64         `json:"lastUpdate,omitempty"`
}

// Met reports whether the requirement has reached its target.
func (r Requirement) Met() bool { return r.Current >= r.Target }

func (r Requirement) matches(t RequirementType, nodeID *int) bool {
	if r.Type != t {
		return false
	}
	return r.TargetNodeID == nil || (nodeID != nil && *nodeID == *r.TargetNodeID)
}

// Objective is a set of requirements worth a reward.
type Objective struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Requirements []Requirement `json:"requirements"`
	Reward       int           `json:"reward"`
	TimeLimit    time.Duration `json:"timeLimit"`
	Status       Status        `json:"status"`
	StartedAt    time.Time     `json:"startedAt"`
	Primary      bool          `json:"primary"`
}

// Progress is the mean fraction of each requirement reached, capped at 1.
func (o Objective) Progress() float64 {
	if len(o.Requirements) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range o.Requirements {
		if r.Target > 0 {
			sum += math.Min(1, r.Current/r.Target)
		} else {
			sum++
		}
	}
	return sum / float64(len(o.Requirements))
}

func (o *Objective) clone() Objective {
	c := *o
	c.Requirements = make([]Requirement, len(o.Requirements))
	for i, r := range o.Requirements {
		c.Requirements[i] = r
		if r.TargetNodeID != nil {
			id := *r.TargetNodeID
			c.Requirements[i].TargetNodeID = &id
		}
	}
	return c
}

// Completion records a payout.
type Completion struct {
	Objective  Objective
	Multiplier float64
	Points     int
	FollowUp   *Objective
}

// Rewarder receives objective payouts.
type Rewarder interface {
	AddPoints(points int)
}

// Roller draws uniform floats in [0, 1).
type Roller interface {
	Float64() float64
}

// Options configures a Tracker.
type Options struct {
	NewID  func() string
	Logger logging.Logger
}

// Tracker holds the current objective set. It is not safe for concurrent use.
type Tracker struct {
	objectives []*Objective
	faction    model.Faction

	rewarder Rewarder
	rng      Roller
	nodeIDs  func() []int
	newID    func() string
	logger   logging.Logger
}

// NewTracker returns an empty tracker. nodeIDs supplies the ids follow-up
// objectives may target.
func NewTracker(rewarder Rewarder, rng Roller, nodeIDs func() []int, opts Options) *Tracker {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Tracker{
		rewarder: rewarder,
		rng:      rng,
		nodeIDs:  nodeIDs,
		newID:    opts.NewID,
		logger:   logging.OrDefault(opts.Logger).With(logging.Component("objective")),
	}
}

// Initialize replaces the objective set with the faction's primary objectives.
func (t *Tracker) Initialize(faction model.Faction, now time.Time) {
	t.faction = faction
	t.objectives = t.objectives[:0]
	for _, o := range primaries(faction) {
		o := o
		o.Status = InProgress
		o.StartedAt = now
		o.TimeLimit = primaryLimit
		o.Primary = true
		t.objectives = append(t.objectives, &o)
	}
	t.logger.Info("objectives initialized", logging.Faction(faction), logging.Int("count", len(t.objectives)))
}

// Reset drops every objective.
func (t *Tracker) Reset() {
	t.objectives = nil
}

// Objectives returns copies of every objective, completed ones included.
func (t *Tracker) Objectives() []Objective {
	out := make([]Objective, len(t.objectives))
	for i, o := range t.objectives {
		out[i] = o.clone()
	}
	return out
}

// Active counts in-progress objectives.
func (t *Tracker) Active() int {
	n := 0
	for _, o := range t.objectives {
		if o.Status == InProgress {
			n++
		}
	}
	return n
}

// AllPrimaryCompleted reports whether every primary objective is complete.
// It is false when there are no primary objectives.
func (t *Tracker) AllPrimaryCompleted() bool {
	seen := false
	for _, o := range t.objectives {
		if !o.Primary {
			continue
		}
		seen = true
		if o.Status != Completed {
			return false
		}
	}
	return seen
}

// UpdateProgress applies value to every matching requirement of every
// in-progress objective and returns the objectives that completed as a result.
//
// Absolute types take value as-is, flag types jump to target when value is 1,
// counters add value, and duration types take the total elapsed seconds of
// the tracked state and add only the part not yet counted.
func (t *Tracker) UpdateProgress(rt RequirementType, value float64, nodeID *int, now time.Time) []Completion {
	var done []Completion

	// follow-ups appended during the loop are not visited this round
	n := len(t.objectives)
	for i := 0; i < n; i++ {
		o := t.objectives[i]
		if o.Status != InProgress {
			continue
		}
		touched := false
		for j := range o.Requirements {
			r := &o.Requirements[j]
			if !r.matches(rt, nodeID) {
				continue
			}
			touched = true
			switch rt.rule() {
			case ruleAbsolute:
				r.Current = value
			case ruleFlag:
				if value == 1 {
					r.Current = r.Target
				}
			case ruleDuration:
				if inc := value - r.LastUpdate; inc > 0 {
					r.Current += inc
					r.LastUpdate = value
				}
			default:
				r.Current += value
			}
		}
		if touched && allMet(o.Requirements) {
			done = append(done, t.complete(o, now))
		}
	}
	return done
}

func allMet(reqs []Requirement) bool {
	for _, r := range reqs {
		if !r.Met() {
			return false
		}
	}
	return true
}

func (t *Tracker) complete(o *Objective, now time.Time) Completion {
	o.Status = Completed

	mult := 1.0
	if o.TimeLimit > 0 {
		remaining := max(0, o.TimeLimit-now.Sub(o.StartedAt))
		mult = 1 + float64(remaining)/float64(o.TimeLimit)
	}
	points := int(math.Round(float64(o.Reward) * mult))
	if t.rewarder != nil {
		t.rewarder.AddPoints(points)
	}

	c := Completion{Objective: o.clone(), Multiplier: mult, Points: points}
	t.logger.Info("objective completed",
		logging.ObjectiveID(o.ID), logging.Int("points", points), logging.Float64("multiplier", mult))

	if t.Active() < MinActive {
		if f := t.generate(now); f != nil {
			t.objectives = append(t.objectives, f)
			fc := f.clone()
			c.FollowUp = &fc
		}
	}
	return c
}

func (t *Tracker) generate(now time.Time) *Objective {
	templates := secondaries[t.faction]
	var ids []int
	if t.nodeIDs != nil {
		ids = t.nodeIDs()
	}
	if len(templates) == 0 || len(ids) == 0 {
		return nil
	}
	tpl := templates[pick(t.rng, len(templates))]
	o := tpl(t.newID(), ids[pick(t.rng, len(ids))])
	o.Status = InProgress
	o.StartedAt = now
	o.TimeLimit = secondaryLimit
	t.logger.Debug("follow-up objective generated", logging.ObjectiveID(o.ID), logging.String("title", o.Title))
	return &o
}

func pick(rng Roller, n int) int {
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
