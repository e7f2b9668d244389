package proto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"
)

// Text builds a plain, optionally colored chat component, the same shape
// used throughout this proxy's lineage for every player-facing message
// (MOTD description, LoginDisconnect/Disconnect reason, lobby chat
// overlay) rather than hand-assembled JSON strings.
func Text(content string, col color.Color) *component.Text {
	return &component.Text{Content: content, S: component.Style{Color: col}}
}

// MarshalChat renders a chat component to its Minecraft JSON wire form.
func MarshalChat(c component.Component) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(c); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Template expands {motd_sleeping}, {motd_starting} and {elapsed} in a
// configured message string, as required by the Kick strategy (spec
// §4.5) and Lobby's periodic chat message.
func Template(msg, sleeping, starting string, elapsedSeconds int) string {
	r := strings.NewReplacer(
		"{motd_sleeping}", sleeping,
		"{motd_starting}", starting,
		"{elapsed}", strconv.Itoa(elapsedSeconds),
	)
	return r.Replace(msg)
}
