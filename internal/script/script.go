package script

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/wagiedev/commando"
	"github.com/wagiedev/commando/internal/errors"
)

var errRespondOnEnd = stderrors.New("respond has no effect on an end rule")

// Script is a decoded session description.
type Script struct {
	Command    string            `json:"command"`
	CmdPath    string            `json:"cmd_path,omitempty"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	Silent     bool              `json:"silent,omitempty"`
	PTY        bool              `json:"pty,omitempty"`
	Dirs       []string          `json:"dirs,omitempty"`
	Rules      []Rule            `json:"rules,omitempty"`

	// BaseDir is the directory relative paths are resolved against.
	BaseDir string `json:"-"`
}

// Rule is one prompt/response pair.
type Rule struct {
	Match   string `json:"match"`
	Respond string `json:"respond,omitempty"`
	End     bool   `json:"end,omitempty"`
	Many    bool   `json:"many,omitempty"`
}

// CompiledRule is a rule with its pattern compiled.
type CompiledRule struct {
	Rule
	Pattern *regexp.Regexp
}

// Load reads and validates the script at path.
func Load(fs afero.Fs, path string) (*Script, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}

	s.BaseDir = filepath.Dir(path)

	return s, nil
}

// Parse decodes and validates a script document.
func Parse(data []byte) (*Script, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}

	// Round-trip through JSON so validation sees plain JSON values.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}

	var doc any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}

	if err := resolvedSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}

	var s Script
	if err := json.Unmarshal(normalized, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}

	if _, err := s.Compile(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Compile compiles every rule pattern in order.
// Returns *errors.RuleError naming the first bad rule.
func (s *Script) Compile() ([]CompiledRule, error) {
	compiled := make([]CompiledRule, 0, len(s.Rules))

	for i, rule := range s.Rules {
		if rule.End && rule.Respond != "" {
			return nil, &errors.RuleError{
				Index: i,
				Match: rule.Match,
				Err:   errRespondOnEnd,
			}
		}

		re, err := regexp.Compile(rule.Match)
		if err != nil {
			return nil, &errors.RuleError{Index: i, Match: rule.Match, Err: err}
		}

		compiled = append(compiled, CompiledRule{Rule: rule, Pattern: re})
	}

	return compiled, nil
}

// Resolve returns p relative to the script's directory. Absolute and
// empty paths are returned unchanged.
func (s *Script) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || s.BaseDir == "" {
		return p
	}

	return filepath.Join(s.BaseDir, p)
}

// Folders returns the folders to create before running, resolved.
func (s *Script) Folders() []string {
	folders := make([]string, 0, len(s.Dirs))
	for _, dir := range s.Dirs {
		folders = append(folders, s.Resolve(dir))
	}

	return folders
}

// Options returns the driver options the script asks for.
func (s *Script) Options() []commando.Option {
	opts := []commando.Option{
		commando.WithSilent(s.Silent),
		commando.WithPTY(s.PTY),
		commando.WithCmdPath(s.Resolve(s.CmdPath)),
		commando.WithWorkingDir(s.Resolve(s.WorkingDir)),
	}

	if len(s.Env) > 0 {
		opts = append(opts, commando.WithEnv(s.Env))
	}

	return opts
}

// Apply registers the script's rules on d in order.
func (s *Script) Apply(d *commando.Driver) error {
	rules, err := s.Compile()
	if err != nil {
		return err
	}

	for _, rule := range rules {
		var opts []commando.MatcherOption
		if rule.Many {
			opts = append(opts, commando.MatchMany())
		}

		switch {
		case rule.End:
			d.EndWhen(rule.Pattern, nil, opts...)
		case rule.Respond != "":
			d.When(rule.Pattern, commando.Reply(rule.Respond), opts...)
		default:
			d.When(rule.Pattern, nil, opts...)
		}
	}

	return nil
}

// NewDriver builds a driver for the script. Extra options are applied after
// the script's own, so callers can override them.
func (s *Script) NewDriver(extra ...commando.Option) (*commando.Driver, error) {
	d, err := commando.New(s.Command, append(s.Options(), extra...)...)
	if err != nil {
		return nil, err
	}

	if err := s.Apply(d); err != nil {
		return nil, err
	}

	return d, nil
}
