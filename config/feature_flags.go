package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags toggles optional surfaces of the gradebook. The core record
// keeping (students, assessments, grades) is never behind a flag.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	// === Narrative features ===
	FeatureAIFeedbackDraft = "ai.feedback_draft" // draft a comment for one grade
	FeatureAIClassAnalysis = "ai.class_analysis" // summarize a class result

	// === Portal features ===
	FeaturePortalNISLookup = "portal.nis_lookup" // find a report card by NIS

	// === Operator features ===
	FeatureAdminReset = "admin.reset" // restore the sample dataset
)

// LoadFeatureFlags builds the flag set from defaults and FEATURE_* overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.add(FeatureAIFeedbackDraft, "Draft grade feedback with the text-generation API", true)
	ff.add(FeatureAIClassAnalysis, "Summarize class performance with the text-generation API", true)
	ff.add(FeaturePortalNISLookup, "Let a student open a report card by registration number", true)
	ff.add(FeatureAdminReset, "Allow restoring the sample dataset", false)
}

func (ff *FeatureFlags) add(name, description string, enabled bool) {
	ff.features[name] = &Feature{Name: name, Description: description, Enabled: enabled}
}

// loadFromEnvironment applies FEATURE_<NAME>=true|false overrides.
// Example: FEATURE_AI_CLASS_ANALYSIS=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
		}
	}
}

// featureNameToEnvKey converts a feature name to its environment key.
// "ai.feedback_draft" -> "FEATURE_AI_FEEDBACK_DRAFT"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether the named feature is on. Unknown names are off.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	if ff == nil {
		return false
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[name]
	return ok && feature.Enabled
}

// Set turns a feature on or off at runtime.
func (ff *FeatureFlags) Set(name string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[name]
	if !ok {
		return ErrFeatureNotFound
	}
	feature.Enabled = enabled
	return nil
}

// Names returns the known feature names, sorted.
func (ff *FeatureFlags) Names() []string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	names := make([]string, 0, len(ff.features))
	for name := range ff.features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NarrativeEnabled reports whether any text-generation surface is on.
func (ff *FeatureFlags) NarrativeEnabled() bool {
	return ff.IsEnabled(FeatureAIFeedbackDraft) || ff.IsEnabled(FeatureAIClassAnalysis)
}

// --- Errors ---

// ErrFeatureNotFound is returned by Set for an unknown name.
var ErrFeatureNotFound = &FeatureFlagError{Message: "feature not found"}

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
