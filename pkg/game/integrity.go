package game

import (
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/network"
)

var healthWeight = map[model.NodeStatus]float64{
	model.StatusSecure:      1,
	model.StatusBackedUp:    1,
	model.StatusMonitoring:  1,
	model.StatusActive:      1,
	model.StatusPatching:    1,
	model.StatusScanning:    1,
	model.StatusDetected:    1,
	model.StatusVulnerable:  0.75,
	model.StatusQuarantined: 0.75,
	model.StatusOverloaded:  0.5,
	model.StatusDegraded:    0.5,
	model.StatusCompromised: 0.25,
	model.StatusBreached:    0,
}

// Integrity is the mean per-status health weight of nodes as a percentage.
// An empty network has full integrity.
func Integrity(nodes []network.Node) float64 {
	if len(nodes) == 0 {
		return 100
	}
	sum := 0.0
	for _, n := range nodes {
		sum += healthWeight[n.Status]
	}
	return sum / float64(len(nodes)) * 100
}
