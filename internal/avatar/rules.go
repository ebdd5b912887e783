package avatar

import (
	_ "embed"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

// ruleTables holds the fixed keyword tables driving free-text extraction.
type ruleTables struct {
	Gazetteer      []string            `yaml:"gazetteer"`
	Industries     map[string][]string `yaml:"industries"`
	RolesPrimary   []string            `yaml:"roles_primary"`
	RolesSecondary []string            `yaml:"roles_secondary"`
	IntentSignals  map[string]string   `yaml:"intent_signals"`
	TechSignals    map[string]string   `yaml:"tech_signals"`

	// industryOrder gives deterministic iteration over the industries map.
	industryOrder []string
}

var (
	rulesOnce sync.Once
	rules     ruleTables
)

// loadRules parses the embedded tables exactly once. The tables ship with
// the binary, so a parse failure is a build defect and panics.
func loadRules() *ruleTables {
	rulesOnce.Do(func() {
		if err := yaml.Unmarshal(rulesYAML, &rules); err != nil {
			panic("avatar: embedded rules.yaml is malformed: " + err.Error())
		}
		rules.industryOrder = make([]string, 0, len(rules.Industries))
		for label := range rules.Industries {
			rules.industryOrder = append(rules.industryOrder, label)
		}
		sort.Strings(rules.industryOrder)
	})
	return &rules
}
