// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - The status command.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/cocreateai/cocreate-chat/internal/config"
	"github.com/cocreateai/cocreate-chat/internal/ui/styles"
)

// StatusReport is what the status command gathers.
type StatusReport struct {
	Version       string `json:"version"`
	ConfigFile    string `json:"config_file"`
	BackendURL    string `json:"backend_url"`
	Offline       bool   `json:"offline"`
	BackendOK     bool   `json:"backend_ok"`
	BackendStatus string `json:"backend_status,omitempty"`
	BackendError  string `json:"backend_error,omitempty"`
	LatencyMS     int64  `json:"latency_ms,omitempty"`
	StorageDriver string `json:"storage_driver"`
	StoragePath   string `json:"storage_path,omitempty"`
	Conversations int    `json:"conversations"`
	CurrentID     string `json:"current_conversation_id,omitempty"`
	Entities      int    `json:"entities"`
}

// HandleStatus prints backend reachability and storage details.
func HandleStatus(ctx context.Context, args Args) error {
	SetupColors(args.NoColor)
	env, err := OpenEnv(args, EnvOptions{})
	if err != nil {
		return err
	}
	defer env.Close()
	return RunStatus(ctx, env)
}

// RunStatus gathers and prints the status report for env.
func RunStatus(ctx context.Context, env *Env) error {
	report := GatherStatus(ctx, env)
	if env.Args.JSON {
		return writeJSON(env.Stdout, "status", report)
	}

	w := env.Stdout
	fmt.Fprintln(w, TitleStyle.Render("cocreate "+report.Version))
	printField(w, "Config", report.ConfigFile)
	printField(w, "Backend", report.BackendURL)
	switch {
	case report.Offline:
		printField(w, "Reachable", styles.RenderWarning("offline (--offline)"))
	case report.BackendOK:
		printField(w, "Reachable", styles.RenderSuccess(fmt.Sprintf("yes (%d ms)", report.LatencyMS)))
	default:
		printField(w, "Reachable", styles.RenderError("no: "+report.BackendError))
	}
	printField(w, "Storage", report.StorageDriver)
	if report.StoragePath != "" {
		printField(w, "Location", report.StoragePath)
	}
	printField(w, "Conversations", report.Conversations)
	if report.CurrentID != "" {
		printField(w, "Current", report.CurrentID)
	}
	printField(w, "Entities", report.Entities)
	return nil
}

// GatherStatus probes the backend once and collects the report.
func GatherStatus(ctx context.Context, env *Env) StatusReport {
	report := StatusReport{
		Version:       Version,
		BackendURL:    env.Config.Backend.URL,
		Offline:       env.Client == nil,
		StorageDriver: env.Config.Storage.Driver,
		Conversations: env.Store.Len(),
		CurrentID:     env.Store.CurrentConversationID(),
		Entities:      env.Catalog.Len(),
	}

	switch {
	case env.Args.ConfigPath != "":
		report.ConfigFile = env.Args.ConfigPath
	default:
		if path, err := config.ConfigPathTOML(); err == nil {
			report.ConfigFile = path
		}
	}
	if env.Config.Storage.Driver != "memory" {
		if path, err := env.Config.StoragePath(); err == nil {
			report.StoragePath = path
		}
	}

	if env.Client != nil {
		start := time.Now()
		health, err := env.Client.Health(ctx)
		if err != nil {
			report.BackendError = err.Error()
		} else {
			report.BackendOK = true
			report.BackendStatus = health.Status
			report.LatencyMS = time.Since(start).Milliseconds()
		}
	}
	return report
}
