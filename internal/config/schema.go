package config

// TonesConfig holds the tone selection rules and style lexicons loaded
// from configs/tones.yaml.
type TonesConfig struct {
	Selector SelectorConfig           `yaml:"selector"`
	Profiles map[string]ProfileConfig `yaml:"profiles"`
}

// SelectorConfig weights the rule classes used by the tone selector.
// Age rules are strong signals and outweigh single keyword hits.
type SelectorConfig struct {
	AgeWeight     int `yaml:"age_weight"`
	KeywordWeight int `yaml:"keyword_weight"`
}

// ProfileConfig lists the selector keywords and spoken particles for one
// tone profile. Keywords match against visual descriptions; particles feed
// the style conversion prompt.
type ProfileConfig struct {
	Keywords  []string `yaml:"keywords"`
	Particles []string `yaml:"particles"`
}
