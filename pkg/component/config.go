package component

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/delaneyj/viewcore/pkg/diag"
)

// ErrorHandler receives evaluation errors that no errorCaptured hook stopped.
type ErrorHandler func(err error, vm *Instance, info string)

// WarnHandler receives development warnings instead of the logger.
type WarnHandler func(msg string, vm *Instance, trace string)

// Config is the process wide settings surface. It is written during setup and
// only read afterwards.
type Config struct {
	// Silent suppresses warnings and tips.
	Silent bool
	// Production turns off development warnings entirely.
	Production    bool
	ProductionTip bool
	DevTools      bool
	// Performance records phase durations in Metrics.
	Performance bool
	// Async flushes watchers on the next tick, otherwise synchronously.
	Async bool

	ErrorHandler ErrorHandler
	WarnHandler  WarnHandler

	// IgnoredElements are custom elements that are never reported as unknown.
	// Entries may be plain tag names or /regexp/ patterns.
	IgnoredElements []string
	KeyCodes        map[string]int

	IsReservedTag    func(tag string) bool
	IsReservedAttr   func(attr string) bool
	MustUseProp      func(tag, typ, attr string) bool
	GetTagNamespace  func(tag string) string
	IsUnknownElement func(tag string) bool

	// MergeStrategies override or extend the built in strategy table.
	MergeStrategies Strategies

	Logger  *diag.Logger
	Metrics prometheus.Registerer
}

// DefaultConfig returns a development configuration with platform agnostic
// predicates.
func DefaultConfig() *Config {
	return &Config{
		ProductionTip:    true,
		Async:            true,
		KeyCodes:         map[string]int{},
		IsReservedTag:    func(string) bool { return false },
		IsReservedAttr:   func(string) bool { return false },
		MustUseProp:      func(string, string, string) bool { return false },
		GetTagNamespace:  func(string) string { return "" },
		IsUnknownElement: func(string) bool { return false },
		MergeStrategies:  Strategies{},
		Logger:           diag.Default(),
	}
}

func (c *Config) fill() {
	d := DefaultConfig()
	if c.KeyCodes == nil {
		c.KeyCodes = d.KeyCodes
	}
	if c.IsReservedTag == nil {
		c.IsReservedTag = d.IsReservedTag
	}
	if c.IsReservedAttr == nil {
		c.IsReservedAttr = d.IsReservedAttr
	}
	if c.MustUseProp == nil {
		c.MustUseProp = d.MustUseProp
	}
	if c.GetTagNamespace == nil {
		c.GetTagNamespace = d.GetTagNamespace
	}
	if c.IsUnknownElement == nil {
		c.IsUnknownElement = d.IsUnknownElement
	}
	if c.MergeStrategies == nil {
		c.MergeStrategies = d.MergeStrategies
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
}

// IsIgnoredElement reports whether tag matches IgnoredElements.
func (c *Config) IsIgnoredElement(tag string) bool {
	return slices.ContainsFunc(c.IgnoredElements, func(pattern string) bool {
		if len(pattern) > 2 && pattern[0] == '/' && pattern[len(pattern)-1] == '/' {
			re, err := regexp.Compile(pattern[1 : len(pattern)-1])
			return err == nil && re.MatchString(tag)
		}
		return pattern == tag
	})
}

// Settings are the toggles of Config that can be loaded from YAML.
type Settings struct {
	Silent          bool           `yaml:"silent"`
	Production      bool           `yaml:"production"`
	ProductionTip   *bool          `yaml:"production_tip"`
	DevTools        bool           `yaml:"devtools"`
	Performance     bool           `yaml:"performance"`
	Async           *bool          `yaml:"async"`
	LogLevel        string         `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	IgnoredElements []string       `yaml:"ignored_elements" validate:"dive,required"`
	KeyCodes        map[string]int `yaml:"key_codes" validate:"dive,keys,required,endkeys,gte=0"`
}

var settingsValidator = validator.New()

// LoadSettings decodes and validates YAML settings. An empty document yields
// zero settings.
func LoadSettings(r io.Reader) (*Settings, error) {
	var s Settings
	if err := yaml.NewDecoder(r).Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := settingsValidator.Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

// Apply copies the settings onto c.
func (s *Settings) Apply(c *Config) {
	c.Silent = s.Silent
	c.Production = s.Production
	c.DevTools = s.DevTools
	c.Performance = s.Performance
	if s.ProductionTip != nil {
		c.ProductionTip = *s.ProductionTip
	}
	if s.Async != nil {
		c.Async = *s.Async
	}
	if len(s.IgnoredElements) > 0 {
		c.IgnoredElements = append(c.IgnoredElements, s.IgnoredElements...)
	}
	if len(s.KeyCodes) > 0 {
		if c.KeyCodes == nil {
			c.KeyCodes = map[string]int{}
		}
		for k, v := range s.KeyCodes {
			c.KeyCodes[k] = v
		}
	}
	if s.LogLevel != "" {
		if c.Logger == nil {
			c.Logger = diag.Default()
		}
		lvl, err := zerolog.ParseLevel(s.LogLevel)
		if err == nil {
			c.Logger = c.Logger.Level(lvl)
		}
	}
}
