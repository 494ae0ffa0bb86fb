package texttree

import (
	"github.com/gocrdt/texttree/internal/btree"
	"github.com/gocrdt/texttree/internal/causalgraph"
	"github.com/google/uuid"
)

// LV is the engine's logical-version type, shared verbatim by every
// internal component so a cursor, a span, and a transaction parent all
// address the same integer space.
type LV = btree.LV

// RootLV is the sentinel meaning "before any operation".
const RootLV = btree.RootLV

// AgentID identifies a peer by its interned name.
type AgentID = causalgraph.AgentID

// ExternalID is the (agent, seq) pair used on the wire.
type ExternalID = causalgraph.RawVersion

// RootExternalID is ROOT's reserved external id: agent "ROOT", seq MaxInt.
var RootExternalID = causalgraph.RootRaw

// GetOrCreateAgent returns name as an AgentID, registering it on first
// use. An empty name is replaced with a fresh randomly generated one
// (uuid v4), mirroring how a driver that doesn't care about a stable
// peer identity still needs *some* agent name to author operations
// under.
func (e *Engine) GetOrCreateAgent(name string) AgentID {
	if name == "" {
		name = uuid.NewString()
	}
	id := AgentID(name)
	e.knownAgents[id] = struct{}{}
	return id
}
