// Package agentconfig resolves the per-call business profile: which company
// was called, how to greet, and which dialogue parameters apply.
package agentconfig

import "fmt"

// Industry keys understood by the prompt composer. Unknown values fall back
// to IndustryGeneral.
const (
	IndustryElectrical = "elektro"
	IndustryPlumbing   = "shk"
	IndustryCarpentry  = "tischler"
	IndustryPainting   = "maler"
	IndustryRoofing    = "dachdecker"
	IndustryGeneral    = "allgemeines_handwerk"
)

// AgentConfig is the immutable per-call business profile. Every field has a
// safe default so a failed lookup never blocks call start.
type AgentConfig struct {
	AgentID          string `json:"agent_id,omitempty"`
	CompanyID        string `json:"company_id,omitempty"`
	CompanyName      string `json:"company_name"`
	Industry         string `json:"industry"`
	Greeting         string `json:"greeting"`
	BasePrompt       string `json:"base_prompt"`
	VoiceID          string `json:"voice_id"`
	OpeningHours     string `json:"opening_hours"`
	ForwardingNumber string `json:"forwarding_number"`
	EmergencyNumber  string `json:"emergency_number"`
}

// Default returns the built-in demo configuration used whenever the lookup
// fails or is malformed.
func Default() AgentConfig {
	return AgentConfig{
		CompanyName:  "LYRARO Demo",
		Industry:     IndustryGeneral,
		Greeting:     "Guten Tag, wie kann ich Ihnen helfen?",
		BasePrompt:   "",
		VoiceID:      "EXAVITQu4vr4xnSDxMaL",
		OpeningHours: "Mo-Fr 8-17 Uhr",
	}
}

// ApplyDefaults fills every empty field with its safe default. The greeting
// default names the company so the first utterance stays plausible even for a
// partially configured profile.
func ApplyDefaults(cfg AgentConfig) AgentConfig {
	def := Default()
	if cfg.CompanyName == "" {
		cfg.CompanyName = "Handwerksbetrieb"
	}
	if cfg.Industry == "" {
		cfg.Industry = def.Industry
	}
	if cfg.Greeting == "" {
		cfg.Greeting = fmt.Sprintf("Guten Tag, %s, wie kann ich Ihnen helfen?", cfg.CompanyName)
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = def.VoiceID
	}
	if cfg.OpeningHours == "" {
		cfg.OpeningHours = def.OpeningHours
	}
	return cfg
}
