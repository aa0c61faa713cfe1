package objective

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/model"
)

// RequirementType names a measurable quantity objectives are built from.
type RequirementType string

const (
	SystemIntegrity              RequirementType = "SYSTEM_INTEGRITY"
	EncryptionLevel              RequirementType = "ENCRYPTION_LEVEL"
	AccessLevel                  RequirementType = "ACCESS_LEVEL"
	SystemDisruption             RequirementType = "SYSTEM_DISRUPTION"
	NodeSecured                  RequirementType = "NODE_SECURED"
	NodeCompromised              RequirementType = "NODE_COMPROMISED"
	ThreatsBlocked               RequirementType = "THREATS_BLOCKED"
	NodesSecured                 RequirementType = "NODES_SECURED"
	NodesCompromised             RequirementType = "NODES_COMPROMISED"
	ServicesDisrupted            RequirementType = "SERVICES_DISRUPTED"
	SecurityUpgrades             RequirementType = "SECURITY_UPGRADES"
	DefenseBypassed              RequirementType = "DEFENSE_BYPASSED"
	PrivilegeEscalation          RequirementType = "PRIVILEGE_ESCALATION"
	NodeDefenseUpgraded          RequirementType = "NODE_DEFENSE_UPGRADED"
	NodePrivilegesEscalated      RequirementType = "NODE_PRIVILEGES_ESCALATED"
	NodeMonitoredDuration        RequirementType = "NODE_MONITORED_DURATION"
	NodeAccessMaintainedDuration RequirementType = "NODE_ACCESS_MAINTAINED_DURATION"
)

type updateRule int

const (
	ruleCounter updateRule = iota
	ruleAbsolute
	ruleFlag
	ruleDuration
)

func (t RequirementType) rule() updateRule {
	switch t {
	case SystemIntegrity, EncryptionLevel, AccessLevel, SystemDisruption:
		return ruleAbsolute
	case NodeSecured, NodeCompromised:
		return ruleFlag
	case NodeMonitoredDuration, NodeAccessMaintainedDuration:
		return ruleDuration
	}
	return ruleCounter
}

const (
	primaryLimit   = 5 * time.Minute
	secondaryLimit = 3 * time.Minute
)

func primaries(f model.Faction) []Objective {
	if f == model.WhiteHat {
		return []Objective{
			{
				ID:          "secure_network",
				Title:       "Secure the Network",
				Description: "Secure nodes and keep system integrity high",
				Requirements: []Requirement{
					{Type: NodesSecured, Target: 5},
					{Type: SystemIntegrity, Target: 80},
				},
				Reward: 1000,
			},
			{
				ID:          "maintain_defense",
				Title:       "Maintain Defense",
				Description: "Keep the network under watch and block incoming threats",
				Requirements: []Requirement{
					{Type: NodeMonitoredDuration, Target: 90},
					{Type: ThreatsBlocked, Target: 5},
				},
				Reward: 800,
			},
			{
				ID:          "upgrade_security",
				Title:       "Upgrade Security",
				Description: "Back up every node and roll out security upgrades",
				Requirements: []Requirement{
					{Type: SecurityUpgrades, Target: 3},
					{Type: EncryptionLevel, Target: 100},
				},
				Reward: 1200,
			},
		}
	}
	return []Objective{
		{
			ID:          "breach_network",
			Title:       "Breach the Network",
			Description: "Compromise nodes and disrupt services",
			Requirements: []Requirement{
				{Type: NodesCompromised, Target: 3},
				{Type: SystemDisruption, Target: 50},
				{Type: ServicesDisrupted, Target: 2},
			},
			Reward: 1000,
		},
		{
			ID:          "maintain_access",
			Title:       "Maintain Access",
			Description: "Hold compromised nodes and bypass hardened defenses",
			Requirements: []Requirement{
				{Type: NodeAccessMaintainedDuration, Target: 60},
				{Type: DefenseBypassed, Target: 3},
			},
			Reward: 800,
		},
		{
			ID:          "escalate_privileges",
			Title:       "Escalate Privileges",
			Description: "Gain higher level access to critical systems",
			Requirements: []Requirement{
				{Type: PrivilegeEscalation, Target: 2},
				{Type: AccessLevel, Target: 50},
			},
			Reward: 1200,
		},
	}
}

type template func(id string, nodeID int) Objective

var secondaries = map[model.Faction][]template{
	model.WhiteHat: {
		func(id string, n int) Objective {
			return Objective{
				ID: id, Title: fmt.Sprintf("Secure Node %d", n),
				Description:  fmt.Sprintf("Protect network node %d", n),
				Requirements: []Requirement{{Type: NodeSecured, Target: 1, TargetNodeID: &n}},
				Reward:       500,
			}
		},
		func(id string, n int) Objective {
			return Objective{
				ID: id, Title: fmt.Sprintf("Upgrade Defense on Node %d", n),
				Description:  fmt.Sprintf("Enhance defense systems on network node %d", n),
				Requirements: []Requirement{{Type: NodeDefenseUpgraded, Target: 1, TargetNodeID: &n}},
				Reward:       600,
			}
		},
		func(id string, n int) Objective {
			return Objective{
				ID: id, Title: fmt.Sprintf("Monitor Node %d for Threats", n),
				Description:  fmt.Sprintf("Keep network node %d under surveillance", n),
				Requirements: []Requirement{{Type: NodeMonitoredDuration, Target: 60, TargetNodeID: &n}},
				Reward:       550,
			}
		},
	},
	model.BlackHat: {
		func(id string, n int) Objective {
			return Objective{
				ID: id, Title: fmt.Sprintf("Compromise Node %d", n),
				Description:  fmt.Sprintf("Gain control of network node %d", n),
				Requirements: []Requirement{{Type: NodeCompromised, Target: 1, TargetNodeID: &n}},
				Reward:       500,
			}
		},
		func(id string, n int) Objective {
			return Objective{
				ID: id, Title: fmt.Sprintf("Maintain Access to Node %d", n),
				Description:  fmt.Sprintf("Keep control of network node %d", n),
				Requirements: []Requirement{{Type: NodeAccessMaintainedDuration, Target: 60, TargetNodeID: &n}},
				Reward:       550,
			}
		},
		func(id string, n int) Objective {
			return Objective{
				ID: id, Title: fmt.Sprintf("Escalate Privileges on Node %d", n),
				Description:  fmt.Sprintf("Obtain administrator access on network node %d", n),
				Requirements: []Requirement{{Type: NodePrivilegesEscalated, Target: 1, TargetNodeID: &n}},
				Reward:       600,
			}
		},
	},
}
