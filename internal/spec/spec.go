// Package spec loads and validates an instrumentation spec file: the
// binary to run, its arguments and environment, and the per-syscall mock
// policies to apply while recording it. Grounded on
// original_source/.../instrumentation-parent/src/lib.rs's InstrumentationSpec
// and src/syscalls/macros.rs's generated SyscallMocks struct.
package spec

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/pendulm/tapetrace/internal/syscalls"
)

// Instrumentation is the input configuration for one recording session,
// mirroring InstrumentationSpec field-for-field.
type Instrumentation struct {
	// Binary is the absolute path of the program to run.
	Binary string `json:"binary"`
	// Args are the arguments the binary is run with, including argv[0].
	Args []string `json:"args"`
	// Env is the environment the binary is run with. Nothing from the
	// supervisor's own environment is inherited automatically.
	Env map[string]string `json:"env"`
	// Cwd is the absolute path of the working directory the binary runs in.
	Cwd string `json:"cwd"`
	// IgnoreIndexes lists tape positions the determinism checker should
	// skip when comparing two recordings.
	IgnoreIndexes []int `json:"ignore_indexes,omitempty"`
	// SyscallMocks configures how each recognized syscall may be
	// intercepted.
	SyscallMocks SyscallMocks `json:"syscall_mocks"`
}

// SyscallMocks holds the per-syscall mock configuration from a spec file,
// one entry per syscall name plus the relative_path_dir every path-rewriting
// mock resolves relative paths against. Realized as a map rather than one
// generated struct field per syscall (as macros.rs's `$name: Option<...>`
// expands to for each of the 40 registered syscalls), since Go has no
// macro-expansion step to generate those fields.
type SyscallMocks struct {
	RelativePathDir string

	mocks map[string]syscalls.Mock
}

// UnmarshalJSON decodes {"relative_path_dir": ..., "<syscall>": {...}, ...}
// into RelativePathDir plus one typed Mock per named syscall, rejecting
// unknown or unmockable syscall names the same way macros.rs's
// `#[serde(deny_unknown_fields)]` does.
func (m *SyscallMocks) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	mocks := map[string]syscalls.Mock{}
	for name, body := range raw {
		if name == "relative_path_dir" {
			if err := json.Unmarshal(body, &m.RelativePathDir); err != nil {
				return errors.Wrap(err, "decoding relative_path_dir")
			}
			continue
		}
		d, ok := syscalls.Lookup(name)
		if !ok {
			return errors.Errorf("syscall_mocks: unrecognized syscall %q", name)
		}
		if d.NewMock == nil {
			return errors.Errorf("syscall_mocks: %q has no mock policy to configure", name)
		}
		mockVal := d.NewMock()
		if err := json.Unmarshal(body, mockVal); err != nil {
			return errors.Wrapf(err, "decoding mock for %q", name)
		}
		mocks[name] = mockVal
	}
	m.mocks = mocks
	return nil
}

// Get returns the configured Mock for a syscall name, or nil if the spec
// left it unconfigured (which, per the convention established throughout
// internal/syscalls, means "pass the syscall through unmodified").
func (m *SyscallMocks) Get(name string) syscalls.Mock {
	if m.mocks == nil {
		return nil
	}
	return m.mocks[name]
}

// SetupAndValidate canonicalizes RelativePathDir once before the recording
// starts and, if replaceSighup is set (the --replace-sighup CLI flag),
// ensures rt_sigaction's mock has ReplaceSighup enabled even if the spec
// file didn't configure one. Mirrors SyscallMocks::setup_and_validate.
func (m *SyscallMocks) SetupAndValidate(replaceSighup bool) error {
	abs, err := syscalls.CanonicalizeRelativePathDir(m.RelativePathDir)
	if err != nil {
		return err
	}
	m.RelativePathDir = abs

	if replaceSighup {
		if m.mocks == nil {
			m.mocks = map[string]syscalls.Mock{}
		}
		mock, ok := m.mocks["rt_sigaction"].(*syscalls.RtSigactionMock)
		if !ok || mock == nil {
			mock = &syscalls.RtSigactionMock{}
			m.mocks["rt_sigaction"] = mock
		}
		mock.ReplaceSighup = true
	}
	return nil
}

// Load reads and validates an instrumentation spec file from path.
func Load(path string) (*Instrumentation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening spec %q", path)
	}
	defer f.Close()

	var s Instrumentation
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return nil, errors.Wrapf(err, "parsing spec %q", path)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the host-side invariants the original's ensure!() calls
// enforce before forking: binary must be an absolute, existing, executable
// path; args must include at least argv[0]; cwd must be an absolute path.
func (s *Instrumentation) Validate() error {
	if !filepath.IsAbs(s.Binary) {
		return errors.Errorf("binary %q must be an absolute path", s.Binary)
	}
	if len(s.Args) == 0 {
		return errors.New("args must be non-empty: args[0] is the program's argv[0]")
	}
	if !filepath.IsAbs(s.Cwd) {
		return errors.Errorf("cwd %q must be an absolute path", s.Cwd)
	}

	info, err := os.Stat(s.Binary)
	if err != nil {
		return errors.Wrapf(err, "binary %q is not accessible", s.Binary)
	}
	if info.IsDir() || info.Mode()&0111 == 0 {
		return errors.Errorf("binary %q is not an executable file", s.Binary)
	}
	if cwdInfo, err := os.Stat(s.Cwd); err != nil || !cwdInfo.IsDir() {
		return errors.Errorf("cwd %q is not an accessible directory", s.Cwd)
	}
	return nil
}

// ShouldIgnore reports whether tape position idx should be skipped during
// equivalence comparison.
func (s *Instrumentation) ShouldIgnore(idx int) bool {
	for _, i := range s.IgnoreIndexes {
		if i == idx {
			return true
		}
	}
	return false
}
