package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateRefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lazymc.toml")
	require.NoError(t, Generate(path, false))
	err := Generate(path, false)
	require.Error(t, err)
	require.NoError(t, Generate(path, true))
}

func TestLoadAppliesDefaultsAndParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lazymc.toml")
	require.NoError(t, Generate(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:25565", cfg.Public.Address)
	require.Equal(t, 60, cfg.Time.SleepAfter)
	require.Equal(t, []string{"hold", "kick"}, cfg.Join.Methods)
	require.Equal(t, 25, cfg.Join.Hold.Timeout)
}

func TestValidateRejectsMissingCommandAndDirectory(t *testing.T) {
	cfg := &Config{
		Public: Public{Address: "0.0.0.0:25565"},
		Server: Server{Address: "localhost:25566"},
		Time:   Time{SleepAfter: 60},
		Join:   Join{Methods: []string{"hold"}},
	}
	err := Validate(cfg)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Error(), "server.command")
}

func TestValidatePassesForWellFormedConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Public: Public{Address: "0.0.0.0:25565"},
		Server: Server{Address: "localhost:25566", Directory: dir, Command: "java -jar server.jar"},
		Time:   Time{SleepAfter: 60},
		Join:   Join{Methods: []string{"hold", "kick"}},
		Rcon:   Rcon{Enabled: true},
	}
	require.NoError(t, Validate(cfg))
}

func TestValidateRejectsUnknownJoinMethod(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Public: Public{Address: "a"},
		Server: Server{Address: "b", Directory: dir, Command: "x"},
		Time:   Time{SleepAfter: 1},
		Join:   Join{Methods: []string{"teleport"}},
		Rcon:   Rcon{Enabled: true},
	}
	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown method")
}
