package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// ValidationError collects every problem found so `config test` can
// report them all at once rather than failing on the first.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %d problem(s): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// ConfigProblem marks this as a configuration-class failure, so the CLI
// can map it to exit code 2 rather than the generic 1.
func (e *ValidationError) ConfigProblem() bool { return true }

// Validate checks structural and filesystem preconditions (spec §6:
// "validate config, validate server directory exists, start command is
// non-empty"). It does not require the backend process to actually be
// runnable, only that the configuration is internally consistent.
func Validate(cfg *Config) error {
	var problems []string

	if strings.TrimSpace(cfg.Server.Command) == "" {
		problems = append(problems, "server.command must not be empty")
	}
	if strings.TrimSpace(cfg.Server.Directory) == "" {
		problems = append(problems, "server.directory must not be empty")
	} else if info, err := os.Stat(cfg.Server.Directory); err != nil || !info.IsDir() {
		problems = append(problems, fmt.Sprintf("server.directory %q does not exist", cfg.Server.Directory))
	}
	if cfg.Server.Address == "" {
		problems = append(problems, "server.address must not be empty")
	}
	if cfg.Public.Address == "" {
		problems = append(problems, "public.address must not be empty")
	}
	if cfg.Time.SleepAfter <= 0 {
		problems = append(problems, "time.sleep_after must be positive")
	}
	if len(cfg.Join.Methods) == 0 {
		problems = append(problems, "join.methods must not be empty")
	}
	for _, m := range cfg.Join.Methods {
		switch m {
		case "hold", "kick", "forward", "lobby":
		default:
			problems = append(problems, fmt.Sprintf("join.methods: unknown method %q", m))
		}
	}
	if contains(cfg.Join.Methods, "forward") && cfg.Join.Forward.Host == "" {
		problems = append(problems, "join.forward.host must be set when \"forward\" is used")
	}
	if cfg.Server.FreezeProcess && runtime.GOOS == "windows" {
		problems = append(problems, "server.freeze_process is unsupported on windows")
	}
	if runtime.GOOS == "windows" && !cfg.Rcon.Enabled {
		problems = append(problems, "rcon.enabled is mandatory on windows (no SIGTERM equivalent)")
	}
	if cfg.ConfigSection.Version != "" && cfg.ConfigSection.Version != CurrentConfigVersion {
		// Non-fatal per spec §6; callers may choose to only log this.
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// VersionMismatch reports whether the file's declared config.version
// differs from what this binary expects, for a warn-only log line.
func VersionMismatch(cfg *Config) bool {
	return cfg.ConfigSection.Version != "" && cfg.ConfigSection.Version != CurrentConfigVersion
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}
