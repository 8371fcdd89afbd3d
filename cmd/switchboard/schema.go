// Copyright 2026 The Switchboard Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/switchboard-dev/switchboard/pkg/config"
)

// SchemaCmd generates the JSON Schema for configuration files. Output goes
// to stdout so it can be redirected.
type SchemaCmd struct {
	Compact bool `short:"c" help:"Compact JSON output (no indentation)."`
}

func (c *SchemaCmd) Run(cli *CLI) error {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Title = "Switchboard Configuration Schema"
	schema.Description = "Configuration schema for the switchboard routing server"
	schema.Version = "http://json-schema.org/draft-07/schema#"
	schema.Examples = []any{
		map[string]any{
			"name": "support-desk",
			"llms": map[string]any{
				"default": map[string]any{
					"type":    "anthropic",
					"model":   "claude-sonnet-4-20250514",
					"api_key": "${ANTHROPIC_API_KEY}",
				},
			},
			"agents": map[string]any{
				"billing": map[string]any{
					"description": "Handles billing and invoice questions",
					"instruction": "You are a billing specialist.",
				},
				"tech-support": map[string]any{
					"description": "Handles technical problems and outages",
				},
			},
			"orchestrator": map[string]any{
				"fallback_agent": "tech-support",
			},
		},
	}

	encoder := json.NewEncoder(os.Stdout)
	if !c.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return nil
}
