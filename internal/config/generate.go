package config

import (
	"fmt"
	"os"
)

// defaultTOML is the template written by `slumber config generate`. It
// mirrors every default set in applyDefaults so the generated file is a
// useful, readable starting point rather than an empty shell.
const defaultTOML = `[config]
version = "` + CurrentConfigVersion + `"

[public]
address = "0.0.0.0:25565"
version = "1.20.4"
protocol = 765
icon = ""

[server]
address = "localhost:25566"
directory = "server"
command = "java -Xmx1G -jar server.jar nogui"
freeze_process = false
wake_on_start = false
wake_on_crash = true
probe_on_start = false
forge = false
start_timeout = 300
stop_timeout = 30
send_proxy_v2 = false
drop_banned_ips = false

[time]
sleep_after = 60
minimum_online_time = 0
poll_interval = 10

[motd]
sleeping = "Server is sleeping, join to start it up"
starting = "Server is starting, please wait..."
from_server = false

[join]
methods = ["hold", "kick"]

[join.hold]
timeout = 25

[join.kick]
message = "Server is starting, please wait... ({elapsed}s)"

[join.forward]
host = ""
port = 25566
send_proxy = false

[join.lobby]
timeout = 60
message = "Server is starting, please wait..."
ready_sound = "block.note_block.bell"

[lockout]
enabled = false
message = "The server is locked down."

[rcon]
enabled = false
port = 25575
password = ""
randomize_password = true
send_proxy_v2 = false

[advanced]
rewrite_server_properties = true

[control]
enabled = false
address = "127.0.0.1:25585"
`

// Generate writes the default config to path. It refuses to overwrite
// an existing file unless force is set (spec §6).
func Generate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(defaultTOML), 0o644)
}
