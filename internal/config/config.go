// Package config loads and validates lazymc.toml-style configuration via
// viper, matching every key spec.md §6 specifies and the teacher's own
// viper.Unmarshal(&cfg) pattern in cmd/gate.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of the TOML configuration file.
type Config struct {
	ConfigSection ConfigSection `mapstructure:"config"`
	Public        Public        `mapstructure:"public"`
	Server        Server        `mapstructure:"server"`
	Time          Time          `mapstructure:"time"`
	Motd          Motd          `mapstructure:"motd"`
	Join          Join          `mapstructure:"join"`
	Lockout       Lockout       `mapstructure:"lockout"`
	Rcon          Rcon          `mapstructure:"rcon"`
	Advanced      Advanced      `mapstructure:"advanced"`
	Control       Control       `mapstructure:"control"`
	Debug         bool          `mapstructure:"debug"`
}

// ConfigSection is the [config] table: a version marker for the file
// format itself.
type ConfigSection struct {
	Version string `mapstructure:"version"`
}

// CurrentConfigVersion is the version this binary expects; a mismatch
// is only ever warned about (spec §6: "warn if mismatched"), never fatal.
const CurrentConfigVersion = "1"

// Public is the [public] table: what status-phase clients see.
type Public struct {
	Address  string `mapstructure:"address"`
	Version  string `mapstructure:"version"`
	Protocol int32  `mapstructure:"protocol"`
	Icon     string `mapstructure:"icon"`
}

// Server is the [server] table: how the backend process is managed.
type Server struct {
	Address          string `mapstructure:"address"`
	Directory        string `mapstructure:"directory"`
	Command          string `mapstructure:"command"`
	FreezeProcess    bool   `mapstructure:"freeze_process"`
	WakeOnStart      bool   `mapstructure:"wake_on_start"`
	WakeOnCrash      bool   `mapstructure:"wake_on_crash"`
	ProbeOnStart     bool   `mapstructure:"probe_on_start"`
	Forge            bool   `mapstructure:"forge"`
	StartTimeout     int    `mapstructure:"start_timeout"` // seconds
	StopTimeout      int    `mapstructure:"stop_timeout"`  // seconds
	SendProxyV2      bool   `mapstructure:"send_proxy_v2"`
	DropBannedIPs    bool   `mapstructure:"drop_banned_ips"`
}

func (s Server) StartTimeoutDuration() time.Duration {
	return time.Duration(s.StartTimeout) * time.Second
}
func (s Server) StopTimeoutDuration() time.Duration {
	return time.Duration(s.StopTimeout) * time.Second
}

// Time is the [time] table: idle-sleep policy.
type Time struct {
	SleepAfter       int `mapstructure:"sleep_after"`       // seconds
	MinimumOnlineTime int `mapstructure:"minimum_online_time"` // seconds
	PollInterval     int `mapstructure:"poll_interval"`      // seconds
}

func (t Time) SleepAfterDuration() time.Duration {
	return time.Duration(t.SleepAfter) * time.Second
}

func (t Time) PollIntervalDuration() time.Duration {
	return time.Duration(t.PollInterval) * time.Second
}

// Motd is the [motd] table.
type Motd struct {
	Sleeping   string `mapstructure:"sleeping"`
	Starting   string `mapstructure:"starting"`
	FromServer bool   `mapstructure:"from_server"`
}

// Join is the [join] table and its nested strategy tables.
type Join struct {
	Methods []string     `mapstructure:"methods"`
	Kick    KickConfig   `mapstructure:"kick"`
	Hold    HoldConfig   `mapstructure:"hold"`
	Forward ForwardConfig `mapstructure:"forward"`
	Lobby   LobbyConfig  `mapstructure:"lobby"`
}

type KickConfig struct {
	Message string `mapstructure:"message"`
}

type HoldConfig struct {
	Timeout int `mapstructure:"timeout"` // seconds
}

func (h HoldConfig) TimeoutDuration() time.Duration {
	return time.Duration(h.Timeout) * time.Second
}

type ForwardConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	SendProxy bool   `mapstructure:"send_proxy"`
}

type LobbyConfig struct {
	Timeout     int    `mapstructure:"timeout"` // seconds
	Message     string `mapstructure:"message"`
	ReadySound  string `mapstructure:"ready_sound"`
}

func (l LobbyConfig) TimeoutDuration() time.Duration {
	return time.Duration(l.Timeout) * time.Second
}

// Lockout is the [lockout] table: kick every Login unconditionally.
type Lockout struct {
	Enabled bool   `mapstructure:"enabled"`
	Message string `mapstructure:"message"`
}

// Rcon is the [rcon] table.
type Rcon struct {
	Enabled           bool   `mapstructure:"enabled"`
	Port              int    `mapstructure:"port"`
	Password          string `mapstructure:"password"`
	RandomizePassword bool   `mapstructure:"randomize_password"`
	SendProxyV2       bool   `mapstructure:"send_proxy_v2"`
}

// Advanced is the [advanced] table.
type Advanced struct {
	RewriteServerProperties bool `mapstructure:"rewrite_server_properties"`
}

// Control is the [control] table (SPEC_FULL addition): the optional
// local admin HTTP endpoint.
type Control struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// Load reads and unmarshals the TOML file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	applyDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("config.version", CurrentConfigVersion)
	v.SetDefault("public.address", "0.0.0.0:25565")
	v.SetDefault("public.version", "1.20.4")
	v.SetDefault("server.address", "localhost:25566")
	v.SetDefault("server.directory", "server")
	v.SetDefault("server.start_timeout", 300)
	v.SetDefault("server.stop_timeout", 30)
	v.SetDefault("server.wake_on_crash", true)
	v.SetDefault("time.sleep_after", 60)
	v.SetDefault("time.minimum_online_time", 0)
	v.SetDefault("time.poll_interval", 10)
	v.SetDefault("motd.sleeping", "Server is sleeping, join to start it up")
	v.SetDefault("motd.starting", "Server is starting, please wait...")
	v.SetDefault("motd.from_server", false)
	v.SetDefault("join.methods", []string{"hold", "kick"})
	v.SetDefault("join.hold.timeout", 25)
	v.SetDefault("join.kick.message", "Server is starting, please wait... ({elapsed}s)")
	v.SetDefault("join.lobby.timeout", 60)
	v.SetDefault("join.lobby.message", "Server is starting, please wait...")
	v.SetDefault("join.lobby.ready_sound", "block.note_block.bell")
	v.SetDefault("lockout.enabled", false)
	v.SetDefault("rcon.enabled", false)
	v.SetDefault("rcon.port", 25575)
	v.SetDefault("advanced.rewrite_server_properties", true)
	v.SetDefault("control.enabled", false)
	v.SetDefault("control.address", "127.0.0.1:25585")
}
