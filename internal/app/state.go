package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"deploykit/internal/revision"
)

// ExecutionStep names the steps of the bootstrap pipeline
type ExecutionStep string

const (
	StepInstall   ExecutionStep = "install"
	StepAssets    ExecutionStep = "assets"
	StepMigrate   ExecutionStep = "migrate"
	StepCompleted ExecutionStep = "completed"
)

// stepOrder is the pipeline's declared execution order.
var stepOrder = []ExecutionStep{StepInstall, StepAssets, StepMigrate}

// ExecutionState represents the state of a DeployKit run
type ExecutionState struct {
	SchemaVersion      string         `json:"schema_version"`
	RunID              string         `json:"run_id"`
	LastSuccessfulStep ExecutionStep  `json:"last_successful_step"`
	PlaybookPath       string         `json:"playbook_path"`
	Revision           *revision.Info `json:"revision,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	LastUpdatedAt      time.Time      `json:"last_updated_at"`
}

const (
	StateFileName      = ".deploykit.state.json"
	StateSchemaVersion = "1.0"
)

// loadState attempts to load the execution state from the state file.
// Returns nil if the file doesn't exist (fresh start).
func loadState() (*ExecutionState, error) {
	if _, err := os.Stat(StateFileName); os.IsNotExist(err) {
		return nil, nil // Fresh start - no state file exists
	}

	data, err := os.ReadFile(StateFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state ExecutionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	return &state, nil
}

// saveState persists the execution state to the state file.
func saveState(state *ExecutionState) error {
	state.LastUpdatedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	if err := os.WriteFile(StateFileName, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// newState creates a new execution state for a fresh run
func newState(playbookPath, runID string) *ExecutionState {
	now := time.Now()
	return &ExecutionState{
		SchemaVersion:      StateSchemaVersion,
		RunID:              runID,
		LastSuccessfulStep: "", // No step completed yet
		PlaybookPath:       playbookPath,
		CreatedAt:          now,
		LastUpdatedAt:      now,
	}
}

// stepIndex returns a step's position in the declared order, -1 if unknown.
func stepIndex(step ExecutionStep) int {
	for i, s := range stepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

// completedSteps returns how many steps the state records as done.
func (s *ExecutionState) completedSteps() int {
	if s == nil || s.LastSuccessfulStep == "" {
		return 0
	}
	if s.LastSuccessfulStep == StepCompleted {
		return len(stepOrder)
	}
	return stepIndex(s.LastSuccessfulStep) + 1
}

// shouldSkipStep determines if a step should be skipped based on the current state
func (s *ExecutionState) shouldSkipStep(step ExecutionStep) bool {
	idx := stepIndex(step)
	return idx >= 0 && idx < s.completedSteps()
}

// getNextStep returns the next step to execute based on the current state
func (s *ExecutionState) getNextStep() ExecutionStep {
	done := s.completedSteps()
	if done >= len(stepOrder) {
		return StepCompleted
	}
	return stepOrder[done]
}

// removeStateFile removes the state file after successful completion
func removeStateFile() error {
	if _, err := os.Stat(StateFileName); os.IsNotExist(err) {
		return nil // File doesn't exist, nothing to remove
	}

	if err := os.Remove(StateFileName); err != nil {
		return fmt.Errorf("failed to remove state file: %w", err)
	}

	return nil
}
