package guardrails

import (
	"context"
	"strings"
)

// Input scoring above injectionThreshold is rejected.
const injectionThreshold = 0.7

var injectionPatterns = []struct {
	pattern string
	weight  float64
	flag    string
}{
	{"ignore previous instructions", 0.9, "override_attempt"},
	{"ignore all previous", 0.9, "override_attempt"},
	{"ignore the above", 0.85, "override_attempt"},
	{"disregard your instructions", 0.9, "override_attempt"},
	{"disregard previous", 0.9, "override_attempt"},
	{"forget your instructions", 0.85, "override_attempt"},
	{"ігноруй попередні інструкції", 0.9, "override_attempt"},
	{"забудь інструкції", 0.85, "override_attempt"},
	{"you are now", 0.7, "role_hijack"},
	{"pretend you are", 0.7, "role_hijack"},
	{"act as if you", 0.6, "role_hijack"},
	{"system prompt", 0.8, "system_leak"},
	{"reveal your system", 0.8, "system_leak"},
	{"show me your prompt", 0.8, "system_leak"},
	{"what are your instructions", 0.7, "system_leak"},
	{"ignore safety", 0.9, "safety_bypass"},
	{"bypass your filters", 0.9, "safety_bypass"},
	{"jailbreak", 0.9, "jailbreak"},
	{"dan mode", 0.9, "jailbreak"},
	{"do anything now", 0.85, "jailbreak"},
	{"</system>", 0.8, "tag_injection"},
	{"<system>", 0.8, "tag_injection"},
	{"[system]", 0.7, "tag_injection"},
	{"### instruction", 0.6, "format_injection"},
	{"```system", 0.7, "format_injection"},
}

// PromptInjectionDetector flags input that tries to override the
// generation instructions using known phrasings.
type PromptInjectionDetector struct{}

func NewPromptInjectionDetector() *PromptInjectionDetector {
	return &PromptInjectionDetector{}
}

func (d *PromptInjectionDetector) Name() string { return "prompt_injection" }

func (d *PromptInjectionDetector) Check(_ context.Context, text string) (*Result, error) {
	score, flags := heuristicScore(text)
	if score > injectionThreshold {
		return &Result{
			Allowed: false,
			Reason:  "contains instructions for the assistant",
			Flags:   flags,
		}, nil
	}
	return &Result{Allowed: true, Flags: flags}, nil
}

func heuristicScore(text string) (float64, []string) {
	lower := strings.ToLower(strings.Join(strings.Fields(text), " "))
	var flags []string
	score := 0.0
	for _, p := range injectionPatterns {
		if strings.Contains(lower, p.pattern) {
			if p.weight > score {
				score = p.weight
			}
			flags = append(flags, p.flag)
		}
	}
	return score, flags
}
