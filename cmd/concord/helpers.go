package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/config"
	"github.com/Veraticus/concord/internal/coordinator"
	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/storage"
)

// loadSettings reads the settings prepared by initConfig.
func loadSettings() (config.Settings, error) {
	return config.Load(v)
}

// loadQuestionnaire loads the stored questionnaire with a hint when none exists.
func loadQuestionnaire(ctx context.Context, store *storage.SQLiteStorage) (model.Questionnaire, error) {
	q, err := store.LoadQuestionnaire(ctx)
	if errors.Is(err, common.ErrNoQuestionnaire) {
		return q, common.NewUserError("no questionnaire is stored; run concord questionnaire import first", err)
	}
	return q, err
}

// openStorage opens and migrates the configured database.
func openStorage(ctx context.Context, settings config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// openCoordinator opens storage and a coordinator with the persisted model
// installed. The caller closes the returned storage.
func openCoordinator(ctx context.Context) (*coordinator.Coordinator, *storage.SQLiteStorage, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStorage(ctx, settings)
	if err != nil {
		return nil, nil, err
	}
	coord, err := coordinator.New(store, settings.Coordinator)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	if _, err := coord.LoadActive(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return coord, store, nil
}

// decodeFile reads YAML or JSON by extension; "-" reads YAML from stdin.
func decodeFile(path string, stdin io.Reader, out any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // user-provided input file
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeFormatted writes value as json or yaml.
func writeFormatted(w io.Writer, format string, value any) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}
