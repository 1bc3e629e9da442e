package strategy

// Rule is one named boolean condition of a setup.
type Rule struct {
	Name string
	Cond func(in *Input) bool
}

// RuleSet is a declarative "soft AND" setup: it matches when at least
// MinMatches of its rules hold. Every rule has weight 1.
type RuleSet struct {
	SetupID    string
	Label      string
	Tier       string
	Icon       string
	MinMatches int
	// MinCandles is the series length below which the set never matches.
	MinCandles int
	Rules      []Rule
}

func (r *RuleSet) Name() string { return r.SetupID }

// Count returns how many rules hold and their names.
func (r *RuleSet) Count(in *Input) (int, []string) {
	var names []string
	for _, rule := range r.Rules {
		if rule.Cond(in) {
			names = append(names, rule.Name)
		}
	}
	return len(names), names
}

// Evaluate implements Strategy.
func (r *RuleSet) Evaluate(in *Input) *Match {
	if len(in.Series) < r.MinCandles {
		return nil
	}
	n, names := r.Count(in)
	if n < r.MinMatches {
		return nil
	}
	return &Match{
		SetupID:    r.SetupID,
		Label:      r.Label,
		Tier:       r.Tier,
		Icon:       r.Icon,
		Matched:    n,
		Total:      len(r.Rules),
		Conditions: names,
	}
}
