package generator

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Presets map tone and goal names to the prompt guidance injected for them.
// A YAML file can override or extend the built-in set without a rebuild.
type Presets struct {
	Tones map[string]string `yaml:"tones"`
	Goals map[string]string `yaml:"goals"`
}

// DefaultPresets returns the built-in tone and goal guidance.
func DefaultPresets() *Presets {
	return &Presets{
		Tones: map[string]string{
			"professional": "Polished and direct. No slang, no exclamation marks.",
			"casual":       "Casual but professional",
			"friendly":     "Warm and conversational, like writing to someone you met at a conference.",
			"persuasive":   "Confident and benefit-led, without being pushy.",
		},
		Goals: map[string]string{
			"meeting":       "Close with a low-friction ask for a short call.",
			"demo":          "Close by offering a quick product demo.",
			"partnership":   "Close by floating a potential partnership.",
			"sale":          "Close with a concrete next step toward a purchase.",
			"networking":    "Close with an invitation to connect, no hard sell.",
			"feedback":      "Close by asking for their honest take.",
			"collaboration": "Close by proposing working on something together.",
		},
	}
}

// LoadPresets reads a YAML presets file and merges it over the defaults.
// An empty path returns the defaults unchanged.
func LoadPresets(path string) (*Presets, error) {
	p := DefaultPresets()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "generator: read presets %s", path)
	}

	var override Presets
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, eris.Wrapf(err, "generator: parse presets %s", path)
	}

	for k, v := range override.Tones {
		p.Tones[k] = v
	}
	for k, v := range override.Goals {
		p.Goals[k] = v
	}
	return p, nil
}

// Tone returns the guidance for a tone, falling back to the casual preset.
func (p *Presets) Tone(name string) string {
	if v, ok := p.Tones[name]; ok && v != "" {
		return v
	}
	return p.Tones["casual"]
}

// Goal returns the guidance for a goal, falling back to the meeting preset.
func (p *Presets) Goal(name string) string {
	if v, ok := p.Goals[name]; ok && v != "" {
		return v
	}
	return p.Goals["meeting"]
}
