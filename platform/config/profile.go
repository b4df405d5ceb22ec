package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// engineProfile is the optional YAML file named by ENGINE_PROFILE. Every
// field is optional; absent fields fall through to the built-in defaults.
//
//	cycle_interval: 30m
//	leads_per_cycle: 250
//	price_ladder: [497, 1997, 5497]
//	thresholds: {sms: 60, voice: 70, close: 50}
//	max_close_probability: 0.2
//	voice_answer_bonus: 20
//	framework: {alpha: 1.5, complexity_label: "O(n^1.5)"}
type engineProfile struct {
	CycleInterval       string   `yaml:"cycle_interval"`
	LeadsPerCycle       *int     `yaml:"leads_per_cycle"`
	PriceLadder         []int64  `yaml:"price_ladder"`
	MaxCloseProbability *float64 `yaml:"max_close_probability"`
	VoiceAnswerBonus    *int     `yaml:"voice_answer_bonus"`
	Thresholds          struct {
		SMS   *int `yaml:"sms"`
		Voice *int `yaml:"voice"`
		Close *int `yaml:"close"`
	} `yaml:"thresholds"`
	Framework struct {
		Alpha           *float64 `yaml:"alpha"`
		ComplexityLabel string   `yaml:"complexity_label"`
	} `yaml:"framework"`
}

func loadProfile(path string) (engineProfile, error) {
	var profile engineProfile
	if strings.TrimSpace(path) == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("read engine profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parse engine profile %s: %w", path, err)
	}
	return profile, nil
}

func (p engineProfile) cycleInterval(fallback string) string {
	if p.CycleInterval != "" {
		return p.CycleInterval
	}
	return fallback
}

func (p engineProfile) leadsPerCycle(fallback string) string {
	if p.LeadsPerCycle != nil {
		return strconv.Itoa(*p.LeadsPerCycle)
	}
	return fallback
}

func (p engineProfile) threshold(value *int, fallback string) string {
	if value != nil {
		return strconv.Itoa(*value)
	}
	return fallback
}

func (p engineProfile) priceLadder(fallback string) string {
	if len(p.PriceLadder) == 0 {
		return fallback
	}
	parts := make([]string, len(p.PriceLadder))
	for i, price := range p.PriceLadder {
		parts[i] = strconv.FormatInt(price, 10)
	}
	return strings.Join(parts, ",")
}

func (p engineProfile) frameworkAlpha(fallback string) string {
	if p.Framework.Alpha != nil {
		return strconv.FormatFloat(*p.Framework.Alpha, 'f', -1, 64)
	}
	return fallback
}
