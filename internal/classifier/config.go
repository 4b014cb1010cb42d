package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	SystemSNOMED = "http://snomed.info/sct"
	SystemLOINC  = "http://loinc.org"
)

// TermConcept maps a term found in text to a coded concept.
type TermConcept struct {
	Term    string `yaml:"term"`
	System  string `yaml:"system"`
	Code    string `yaml:"code"`
	Display string `yaml:"display"`
}

type SeverityIndicators struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Low    []string `yaml:"low"`
}

type TemporalIndicators struct {
	Acute     []string `yaml:"acute"`
	Chronic   []string `yaml:"chronic"`
	Recurring []string `yaml:"recurring"`
}

// Config holds the word tables the classifier matches against. All entries
// are matched case-insensitively as substrings.
type Config struct {
	Keywords       []string           `yaml:"keywords"`
	Phrases        []string           `yaml:"phrases"`
	Terms          []TermConcept      `yaml:"terms"`
	ContextPhrases []string           `yaml:"context_phrases"`
	Negations      []string           `yaml:"negations"`
	Severity       SeverityIndicators `yaml:"severity"`
	Temporal       TemporalIndicators `yaml:"temporal"`
}

// DefaultConfig returns the built-in tables.
func DefaultConfig() Config {
	return Config{
		Keywords: []string{
			// symptoms
			"pain", "ache", "headache", "migraine", "fever", "cough", "flu", "nausea", "nauseous",
			"vomit", "dizzy", "dizziness", "fatigue", "exhausted", "sore", "rash", "allergy",
			"allergic", "infection", "injury", "injured", "sprain", "swelling", "bleeding",
			"cramps", "insomnia", "asthma", "diabetes", "cancer", "covid", "symptom",
			"sick", "illness", "disease", "diagnosed", "diagnosis",
			// care seeking
			"doctor", "physician", "nurse", "hospital", "clinic", "emergency", "appointment",
			"checkup", "surgery", "x-ray", "mri", "therapist", "pharmacy", "prescription",
			"recovery", "treatment",
			// medication
			"medication", "medicine", "antibiotic", "ibuprofen", "tylenol", "advil", "aspirin",
			"insulin", "inhaler", "vaccine", "vaccinated",
			// mental health
			"anxiety", "anxious", "depression", "depressed", "stress", "panic", "therapy",
			"counseling", "burnout",
		},
		Phrases: []string{
			"not feeling well",
			"feeling sick",
			"under the weather",
			"went to the doctor",
			"doctor's appointment",
			"in the hospital",
			"emergency room",
			"urgent care",
			"blood test",
			"side effects",
			"can't sleep",
			"trouble sleeping",
			"panic attack",
			"mental health",
			"physical therapy",
			"sore throat",
			"runny nose",
			"back pain",
			"high blood pressure",
			"blood sugar",
		},
		Terms: []TermConcept{
			{Term: "headache", System: SystemSNOMED, Code: "25064002", Display: "Headache"},
			{Term: "fever", System: SystemSNOMED, Code: "386661006", Display: "Fever"},
			{Term: "pain", System: SystemSNOMED, Code: "22253000", Display: "Pain"},
			{Term: "cough", System: SystemSNOMED, Code: "49727002", Display: "Cough"},
			{Term: "nausea", System: SystemSNOMED, Code: "422587007", Display: "Nausea"},
			{Term: "fatigue", System: SystemSNOMED, Code: "84229001", Display: "Fatigue"},
			{Term: "anxiety", System: SystemSNOMED, Code: "48694002", Display: "Anxiety"},
			{Term: "depression", System: SystemSNOMED, Code: "35489007", Display: "Depressive disorder"},
			{Term: "surgery", System: SystemSNOMED, Code: "387713003", Display: "Surgical procedure"},
			{Term: "medication", System: SystemSNOMED, Code: "410942007", Display: "Drug or medicament"},
		},
		ContextPhrases: []string{"i have", "i feel", "experiencing", "suffering from", "diagnosed with"},
		Negations:      []string{"no ", "not ", "without ", "never ", "don't have"},
		Severity: SeverityIndicators{
			High:   []string{"severe", "extreme", "excruciating", "unbearable", "terrible", "worst", "intense", "debilitating"},
			Medium: []string{"moderate", "significant", "considerable", "pretty bad", "quite"},
			Low:    []string{"mild", "slight", "minor", "a little", "a bit"},
		},
		Temporal: TemporalIndicators{
			Acute:     []string{"sudden", "today", "this morning", "tonight", "yesterday", "just started", "since last night"},
			Chronic:   []string{"chronic", "for years", "for months", "always", "constant", "ongoing", "long-term", "lifelong"},
			Recurring: []string{"again", "recurring", "keeps coming back", "every day", "every week", "often", "frequently", "on and off", "episodes"},
		},
	}
}

// LoadConfig reads a YAML file over the defaults. Tables missing from the
// file keep their built-in values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read classifier config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse classifier config: %w", err)
	}
	return cfg, nil
}

// FromFile builds a classifier from a YAML override file. An empty path
// selects the built-in tables.
func FromFile(path string) (*Classifier, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}
