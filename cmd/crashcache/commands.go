// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
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
	"strings"

	"github.com/sirseerhq/crashcache/internal/cache"
	"github.com/sirseerhq/crashcache/internal/crashpath"
	cacheerrors "github.com/sirseerhq/crashcache/internal/errors"
)

// Command names accepted by run.
const (
	cmdBreadcrumb    = "breadcrumb"
	cmdContext       = "context"
	cmdMetadata      = "metadata"
	cmdClearMetadata = "clear_metadata"
	cmdUser          = "user"
	cmdApp           = "app"
	cmdDevice        = "device"
	cmdSession       = "session"
	cmdPersist       = "persist"
	cmdRaise         = "raise"
)

// command is one NDJSON line read by run. Value carries JSON text verbatim.
type command struct {
	Cmd    string          `json:"cmd"`
	Value  json.RawMessage `json:"value,omitempty"`
	Tab    string          `json:"tab,omitempty"`
	Key    string          `json:"key,omitempty"`
	ID     *string         `json:"id,omitempty"`
	Email  *string         `json:"email,omitempty"`
	Name   *string         `json:"name,omitempty"`
	Signal string          `json:"signal,omitempty"`
}

// ack reports the outcome of a command on stdout.
type ack struct {
	Seq   int    `json:"seq"`
	Cmd   string `json:"cmd,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func parseCommand(line string) (command, error) {
	var cmd command
	if err := json.Unmarshal([]byte(line), &cmd); err != nil {
		return cmd, fmt.Errorf("invalid command: %w", err)
	}
	if cmd.Cmd == "" {
		return cmd, fmt.Errorf("invalid command: missing \"cmd\"")
	}
	return cmd, nil
}

// applyCommand runs cmd against c. Raise is handled by the caller.
func applyCommand(c *cache.Controller, cmd command) error {
	switch cmd.Cmd {
	case cmdBreadcrumb:
		return c.AddBreadcrumb(string(cmd.Value))
	case cmdContext:
		text, err := contextValue(cmd.Value)
		if err != nil {
			return err
		}
		return c.SetContext(text)
	case cmdMetadata:
		// An explicit null is stored; only a missing value clears the key.
		return c.SetMetadata(cmd.Tab, cmd.Key, rawText(cmd.Value, false))
	case cmdClearMetadata:
		return c.ClearMetadata(cmd.Tab, cmd.Key)
	case cmdUser:
		return c.SetUser(cmd.ID, cmd.Email, cmd.Name)
	case cmdApp:
		return c.SetApp(rawText(cmd.Value, true))
	case cmdDevice:
		return c.SetDevice(rawText(cmd.Value, true))
	case cmdSession:
		return c.SetSession(rawText(cmd.Value, true))
	case cmdPersist:
		return c.PersistToDisk()
	default:
		return fmt.Errorf("unknown command %q", cmd.Cmd)
	}
}

// rawText returns the JSON text of v, or nil when v is missing (or null,
// if nullClears).
func rawText(v json.RawMessage, nullClears bool) *string {
	if len(v) == 0 || (nullClears && string(v) == "null") {
		return nil
	}
	s := string(v)
	return &s
}

func contextValue(v json.RawMessage) (*string, error) {
	if len(v) == 0 || string(v) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, fmt.Errorf("%w: context must be a string", cacheerrors.ErrInvalidJSON)
	}
	return &s, nil
}

// raiseSignal resolves the signal named by a raise command. SIGABRT is the
// default.
func raiseSignal(cmd command) (os.Signal, error) {
	name := strings.TrimSpace(cmd.Signal)
	if name == "" {
		name = "SIGABRT"
	}
	return crashpath.ParseSignal(name)
}
