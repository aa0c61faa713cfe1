package balance

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-netsim/pkg/logging"
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/validation"
)

// File is the on-disk form of a balance override.
//
//	actions:
//	  - action: EXPLOIT
//	    faction: BLACK_HAT
//	    cost: {energy: 25, bandwidth: 20, processing: 30}
//	    cooldown: 12s
//	    successRate: 0.6
//	    score: 200
type File struct {
	Actions []FileEntry `yaml:"actions" validate:"required,min=1,dive"`
}

// FileEntry overrides one (action, faction) row.
type FileEntry struct {
	Action      string          `yaml:"action" validate:"required,action"`
	Faction     string          `yaml:"faction" validate:"required,faction"`
	Cost        model.Resources `yaml:"cost"`
	Cooldown    time.Duration   `yaml:"cooldown" validate:"min=0"`
	SuccessRate float64         `yaml:"successRate" validate:"min=0,max=1"`
	Score       int             `yaml:"score" validate:"min=0"`
}

// LoadFile reads a YAML balance file and overlays it on the default table.
// Rows not named in the file keep their default values.
func LoadFile(path string, logger logging.Logger) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read balance file: %w", err)
	}
	return Parse(data, logger)
}

// Parse decodes and validates balance YAML.
func Parse(data []byte, logger logging.Logger) (*Table, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode balance file: %w", err)
	}
	if err := validation.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid balance file: %w", err)
	}

	t := Default(logger)
	cv := validation.NewConfigValidator("balance")
	for i, fe := range f.Actions {
		action, _ := model.ParseAction(fe.Action)
		faction, _ := model.ParseFaction(fe.Faction)
		cv.Custom(fmt.Sprintf("actions[%d]", i), func() error {
			if action.Faction() != faction {
				return fmt.Errorf("%s is not a %s action", action, faction)
			}
			return nil
		})
		t.Set(action, faction, Entry{
			Cost:            fe.Cost,
			Cooldown:        fe.Cooldown,
			BaseSuccessRate: fe.SuccessRate,
			BaseScore:       fe.Score,
		})
	}
	if err := cv.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
