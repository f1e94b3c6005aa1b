package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/workplate/internal/repositories"
	"github.com/desertthunder/workplate/internal/shared"
	"github.com/urfave/cli/v3"
)

// SettingsGet prints the value stored under a key.
func (r *Runner) SettingsGet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("key")
	if key == "" {
		return fmt.Errorf("%w: key is required", shared.ErrMissingArgument)
	}

	settings, err := r.Settings()
	if err != nil {
		return err
	}

	value, err := settings.Get(key)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", value)
}

// SettingsSet stores a value under a key, replacing any previous value.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("key")
	value := cmd.StringArg("value")
	if key == "" || value == "" {
		return fmt.Errorf("%w: key and value are required", shared.ErrMissingArgument)
	}
	if key == repositories.KeyOAuthTokens {
		return fmt.Errorf("%w: %s is managed by 'calendar connect'", shared.ErrInvalidArgument, key)
	}

	settings, err := r.Settings()
	if err != nil {
		return err
	}

	if err := settings.Set(key, value); err != nil {
		return err
	}

	r.logger.Debug("setting saved", "key", key)
	return r.writePlain("✓ Saved %s\n", key)
}

// SettingsList prints every stored key.
func (r *Runner) SettingsList(ctx context.Context, cmd *cli.Command) error {
	settings, err := r.Settings()
	if err != nil {
		return err
	}

	keys, err := settings.Keys()
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		return r.writePlain("No settings stored\n")
	}
	for _, key := range keys {
		r.writePlain("%s\n", key)
	}
	return nil
}
