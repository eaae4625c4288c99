package rules

import (
	"fmt"
	"regexp"

	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/errors"
	"github.com/arthur-debert/kiln/pkg/stages"
)

// Compile turns rule configuration into matchable rules. Patterns must be
// valid regular expressions and every referenced stage must be registered.
func Compile(cfgs []config.RuleConfig, reg stages.Registry) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfgs))
	for i, rc := range cfgs {
		name := rc.Name
		if name == "" {
			name = defaultRuleName(i)
		}

		test, err := regexp.Compile(rc.Test)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigValid,
				"rule %s: invalid test pattern", name).
				WithDetail("rule", name)
		}

		var exclude *regexp.Regexp
		if rc.Exclude != "" {
			exclude, err = regexp.Compile(rc.Exclude)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigValid,
					"rule %s: invalid exclude pattern", name).
					WithDetail("rule", name)
			}
		}

		rule := Rule{
			Name:    name,
			Test:    test,
			Exclude: exclude,
			Asset:   rc.Type == config.AssetResourceType,
		}

		for _, sc := range rc.Use {
			stage, err := reg.Get(sc.Stage)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrStageNotFound,
					"rule %s references unknown stage %q", name, sc.Stage).
					WithDetail("rule", name).
					WithDetail(errors.DetailStage, sc.Stage)
			}
			rule.Stages = append(rule.Stages, StageRef{
				Name:    sc.Stage,
				Stage:   stage,
				Options: sc.Options,
			})
		}

		rules = append(rules, rule)
	}
	return rules, nil
}

func defaultRuleName(i int) string {
	return fmt.Sprintf("rule-%d", i)
}
