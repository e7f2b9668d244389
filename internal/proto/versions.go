package proto

// Version is a Minecraft Java Edition protocol version number, as sent in
// the Handshake packet.
type Version int32

// Named protocol versions the lobby strategy knows how to fully
// synthesize a JoinGame packet for. Field layouts changed repeatedly
// across these; see EncodeJoinGame.
const (
	V1_16_5 Version = 754
	V1_17_1 Version = 756
	V1_18_2 Version = 758
	V1_19_4 Version = 762
	V1_20_1 Version = 763
	V1_20_4 Version = 765
)

// Supported reports whether the lobby's synthesized JoinGame is known to
// be valid for v. Outside this range the lobby must pass or kick rather
// than send a packet it cannot construct correctly (spec: "outside the
// supported range it must pass/kick rather than silently corrupt").
func (v Version) Supported() bool {
	return v >= V1_16_5 && v <= V1_20_4
}

// GreaterEqual reports whether v is at least other.
func (v Version) GreaterEqual(other Version) bool { return v >= other }
