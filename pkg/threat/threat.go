// Package threat tracks the threats raised by node status changes and by the
// background attack feed, and progresses executing threats along the
// compromise graph.
package threat

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/network"
)

// Threat is one entry in the threat feed.
type Threat struct {
	ID             string             `json:"id"`
	Description    string             `json:"description"`
	Severity       model.Severity     `json:"severity"`
	Source         string             `json:"source"`
	CreatedAt      time.Time          `json:"createdAt"`
	Status         model.ThreatStatus `json:"status"`
	TargetNodeID   *int               `json:"targetNodeId,omitempty"`
	Progress       float64            `json:"progress"`
	TimeToComplete time.Duration      `json:"timeToComplete"`
}

func (t *Threat) clone() Threat {
	c := *t
	if t.TargetNodeID != nil {
		id := *t.TargetNodeID
		c.TargetNodeID = &id
	}
	return c
}

// Targets reports whether the threat is aimed at node id.
func (t Threat) Targets(id int) bool {
	return t.TargetNodeID != nil && *t.TargetNodeID == id
}

// progression is the compromise graph executing threats walk.
var progression = map[model.NodeStatus]model.NodeStatus{
	model.StatusActive:      model.StatusVulnerable,
	model.StatusSecure:      model.StatusVulnerable,
	model.StatusPatching:    model.StatusVulnerable,
	model.StatusMonitoring:  model.StatusVulnerable,
	model.StatusScanning:    model.StatusVulnerable,
	model.StatusVulnerable:  model.StatusCompromised,
	model.StatusCompromised: model.StatusBreached,
	model.StatusBreached:    model.StatusBreached,
}

func severityFor(status model.NodeStatus, faction model.Faction) model.Severity {
	switch status {
	case model.StatusBreached, model.StatusCompromised:
		return model.SeverityHigh
	case model.StatusVulnerable, model.StatusPatching:
		return model.SeverityMedium
	case model.StatusSecure:
		if faction == model.BlackHat {
			return model.SeverityHigh
		}
	}
	return model.SeverityLow
}

func statusFor(status model.NodeStatus, faction model.Faction) model.ThreatStatus {
	switch status {
	case model.StatusSecure, model.StatusPatching, model.StatusMonitoring:
		if faction == model.WhiteHat {
			return model.ThreatNeutralized
		}
		return model.ThreatDetected
	case model.StatusVulnerable, model.StatusCompromised, model.StatusBreached:
		if faction == model.WhiteHat {
			return model.ThreatDetected
		}
		return model.ThreatSuccess
	}
	return model.ThreatExecuting
}

func durationFor(status model.NodeStatus) time.Duration {
	switch status {
	case model.StatusScanning:
		return 5 * time.Second
	case model.StatusVulnerable:
		return 8 * time.Second
	case model.StatusCompromised:
		return 12 * time.Second
	case model.StatusBreached:
		return 15 * time.Second
	case model.StatusPatching:
		return 10 * time.Second
	case model.StatusMonitoring:
		return 7 * time.Second
	}
	return 5 * time.Second
}

func describe(node network.Node, status model.NodeStatus, faction model.Faction) string {
	if faction == model.WhiteHat {
		switch status {
		case model.StatusScanning:
			return fmt.Sprintf("Suspicious scanning activity detected on %s", node.Name)
		case model.StatusVulnerable:
			return fmt.Sprintf("Vulnerability detected on %s", node.Name)
		case model.StatusCompromised:
			return fmt.Sprintf("Security breach detected on %s", node.Name)
		case model.StatusBreached:
			return fmt.Sprintf("Critical system breach on %s", node.Name)
		case model.StatusPatching:
			return fmt.Sprintf("Security patch in progress on %s", node.Name)
		case model.StatusMonitoring:
			return fmt.Sprintf("Enhanced monitoring activated on %s", node.Name)
		case model.StatusSecure:
			return fmt.Sprintf("Security measures implemented on %s", node.Name)
		case model.StatusQuarantined:
			return fmt.Sprintf("%s isolated from the network", node.Name)
		case model.StatusBackedUp:
			return fmt.Sprintf("Backup completed for %s", node.Name)
		}
		return fmt.Sprintf("Status change detected on %s", node.Name)
	}

	switch status {
	case model.StatusScanning:
		return fmt.Sprintf("Scanning %s for vulnerabilities", node.Name)
	case model.StatusVulnerable:
		return fmt.Sprintf("Vulnerability exploited on %s", node.Name)
	case model.StatusCompromised:
		return fmt.Sprintf("Successfully compromised %s", node.Name)
	case model.StatusBreached:
		return fmt.Sprintf("Full system access achieved on %s", node.Name)
	case model.StatusPatching:
		return fmt.Sprintf("Security patch intercepted on %s", node.Name)
	case model.StatusMonitoring:
		return fmt.Sprintf("Monitoring system disabled on %s", node.Name)
	case model.StatusActive:
		return fmt.Sprintf("Initial access gained on %s", node.Name)
	case model.StatusOverloaded:
		return fmt.Sprintf("%s flooded with traffic", node.Name)
	case model.StatusDegraded:
		return fmt.Sprintf("Service degraded on %s", node.Name)
	}
	return fmt.Sprintf("Status change on %s", node.Name)
}

var feed = map[model.Faction][]string{
	model.WhiteHat: {
		"SQL Injection attempt",
		"Malware signature detected",
		"Unauthorized access attempt",
		"DDoS traffic inbound",
		"Phishing payload delivered",
		"Suspicious network traffic",
		"Privilege escalation attempt",
		"Data exfiltration attempt",
	},
	model.BlackHat: {
		"Target acquired",
		"Vulnerability found: SQL injection",
		"Bypassing authentication",
		"Escalating privileges",
		"Accessing sensitive data",
		"Planting backdoor",
		"Covering digital tracks",
	},
}
