package leaderboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Fallback string      `yaml:"fallback"`
	Rules    []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// LoadRules decodes a YAML rules document into a Classifier. An empty
// fallback keeps Walking.
func LoadRules(r io.Reader) (*Classifier, error) {
	var doc rulesFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("rules file is empty")
		}
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, errors.New("rules file defines no rules")
	}

	classifier := &Classifier{Fallback: Walking}
	if doc.Fallback != "" {
		fallback, err := ParseCategory(doc.Fallback)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		classifier.Fallback = fallback
	}

	for i, entry := range doc.Rules {
		category, err := ParseCategory(entry.Category)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if len(entry.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, category)
		}
		classifier.Rules = append(classifier.Rules, Rule{Category: category, Keywords: entry.Keywords})
	}
	return classifier, nil
}

// LoadRulesFile reads rules from path.
func LoadRulesFile(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadRules(f)
}
