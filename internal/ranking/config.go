package ranking

// Config holds the weights and tier scores used by the Ranker.
type Config struct {
	// KeywordWeight scales the keyword score after it is normalized to [0,1].
	KeywordWeight float64 `yaml:"keyword_weight"` // default: 1.0
	// IDWeight scales the id/name tier score after it is normalized to [0,1].
	IDWeight float64 `yaml:"id_weight"` // default: 1.5
	// NameWeight scales matches against script names relative to ids.
	NameWeight float64 `yaml:"name_weight"` // default: 0.6

	ExactIDScore        float64 `yaml:"exact_id_score"`        // default: 100
	AllWordsScore       float64 `yaml:"all_words_score"`       // default: 80
	SubstringMatchScore float64 `yaml:"substring_match_score"` // default: 30
	PrefixMatchScore    float64 `yaml:"prefix_match_score"`    // default: 45
}

// DefaultConfig returns the default ranking configuration.
func DefaultConfig() *Config {
	return &Config{
		KeywordWeight:       1.0,
		IDWeight:            1.5,
		NameWeight:          0.6,
		ExactIDScore:        100,
		AllWordsScore:       80,
		SubstringMatchScore: 30,
		PrefixMatchScore:    45,
	}
}

// ApplyDefaults fills zero values from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.KeywordWeight == 0 {
		c.KeywordWeight = d.KeywordWeight
	}
	if c.IDWeight == 0 {
		c.IDWeight = d.IDWeight
	}
	if c.NameWeight == 0 {
		c.NameWeight = d.NameWeight
	}
	if c.ExactIDScore == 0 {
		c.ExactIDScore = d.ExactIDScore
	}
	if c.AllWordsScore == 0 {
		c.AllWordsScore = d.AllWordsScore
	}
	if c.SubstringMatchScore == 0 {
		c.SubstringMatchScore = d.SubstringMatchScore
	}
	if c.PrefixMatchScore == 0 {
		c.PrefixMatchScore = d.PrefixMatchScore
	}
}
