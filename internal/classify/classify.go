// Package classify assigns a coarse category to a prompt so the selection
// strategy can favor providers that specialize in it. Classification is
// deliberately cheap: a lower-cased substring scan against a configurable
// keyword table, not a model call.
package classify

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

const (
	CategoryCode     = "code"
	CategoryWriting  = "writing"
	CategoryAnalysis = "analysis"
)

// Keywords is the category -> keyword-list table loaded from YAML.
type Keywords struct {
	Code    []string `yaml:"code"`
	Writing []string `yaml:"writing"`
}

// Classifier classifies prompts against a hot-swappable keyword table.
type Classifier struct {
	keywords atomic.Pointer[Keywords]
}

// New builds a Classifier from an already-loaded keyword table.
func New(kw Keywords) *Classifier {
	c := &Classifier{}
	c.keywords.Store(&kw)
	return c
}

// LoadFromFile builds a Classifier from a YAML keyword file.
func LoadFromFile(path string) (*Classifier, error) {
	kw, err := loadKeywords(path)
	if err != nil {
		return nil, err
	}
	return New(*kw), nil
}

// Reload re-reads the keyword file and atomically swaps it in. Safe to call
// while Classify is running concurrently on other goroutines.
func (c *Classifier) Reload(path string) error {
	kw, err := loadKeywords(path)
	if err != nil {
		return err
	}
	c.keywords.Store(kw)
	return nil
}

func loadKeywords(path string) (*Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier keywords: %w", err)
	}
	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return nil, fmt.Errorf("parse classifier keywords: %w", err)
	}
	return &kw, nil
}

// Classify returns one of CategoryCode, CategoryWriting, or
// CategoryAnalysis. Code keywords are checked first, then writing
// keywords; anything else defaults to analysis.
func (c *Classifier) Classify(prompt string) string {
	kw := c.keywords.Load()
	lower := strings.ToLower(prompt)

	for _, k := range kw.Code {
		if strings.Contains(lower, k) {
			return CategoryCode
		}
	}
	for _, k := range kw.Writing {
		if strings.Contains(lower, k) {
			return CategoryWriting
		}
	}
	return CategoryAnalysis
}
