package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cristianoliveira/deskbridge/internal/colors"
	"github.com/cristianoliveira/deskbridge/internal/ipc"
	"github.com/cristianoliveira/deskbridge/internal/settings"
)

// SettingsClient defines dependencies required by settings commands.
type SettingsClient interface {
	Get() settings.Settings
	Set(ctx context.Context, p settings.Patch) ipc.Envelope
	Reset(ctx context.Context) ipc.Envelope
}

// SettingsUseCase coordinates settings command behavior.
type SettingsUseCase struct {
	client SettingsClient
}

// NewSettingsUseCase creates a settings use-case.
func NewSettingsUseCase(client SettingsClient) *SettingsUseCase {
	if client == nil {
		panic("NewSettingsUseCase: client dependency cannot be nil")
	}

	return &SettingsUseCase{client: client}
}

// ResetSettingsInput contains reset options and environment adapters.
type ResetSettingsInput struct {
	Force     bool
	GetEnv    func(string) string
	ConfirmFn func() bool
}

// Reset executes settings reset behavior.
func (u *SettingsUseCase) Reset(ctx context.Context, input ResetSettingsInput) error {
	getEnv := input.GetEnv
	if getEnv == nil {
		getEnv = func(string) string { return "" }
	}

	if !input.Force && getEnv("CI") == "" {
		if input.ConfirmFn != nil && !input.ConfirmFn() {
			colors.Info("Operation cancelled")
			return nil
		}
	}

	if env := u.client.Reset(ctx); !env.Success {
		return fmt.Errorf("failed to reset settings: %s", env.Error)
	}

	colors.Success("Settings reset to defaults")
	return nil
}

// Set applies key=value assignments as one update; nothing is written when
// any assignment or the merged record is invalid.
func (u *SettingsUseCase) Set(ctx context.Context, assignments []string) error {
	if len(assignments) == 0 {
		return fmt.Errorf("at least one key=value is required")
	}
	patches := make([]settings.Patch, 0, len(assignments))
	for _, a := range assignments {
		p, err := settings.ParseAssignment(a)
		if err != nil {
			return err
		}
		patches = append(patches, p)
	}

	if env := u.client.Set(ctx, settings.Combine(patches...)); !env.Success {
		return fmt.Errorf("failed to update settings: %s", env.Error)
	}

	colors.Success("Settings updated")
	return nil
}

// Show writes the current settings as JSON.
func (u *SettingsUseCase) Show() error {
	data, err := json.MarshalIndent(u.client.Get(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	colors.Plain(strings.TrimSpace(string(data)))
	return nil
}
