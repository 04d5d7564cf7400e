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

package crashpath

import (
	"syscall"
	"testing"
)

func TestParseSignal(t *testing.T) {
	tests := []struct {
		input   string
		want    syscall.Signal
		wantErr bool
	}{
		{input: "SIGSEGV", want: syscall.SIGSEGV},
		{input: "sigabrt", want: syscall.SIGABRT},
		{input: "ILL", want: syscall.SIGILL},
		{input: " bus ", want: syscall.SIGBUS},
		{input: "SIGFPE", want: syscall.SIGFPE},
		{input: "trap", want: syscall.SIGTRAP},
		{input: "SIGWINCH", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSignal(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSignal(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSignal(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSignal(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSignals_DefaultSet(t *testing.T) {
	got, err := ParseSignals(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 6 {
		t.Errorf("default set has %d signals, want 6", len(got))
	}

	if _, err := ParseSignals([]string{"SIGSEGV", "bogus"}); err == nil {
		t.Error("ParseSignals should fail on an unknown name")
	}
}
