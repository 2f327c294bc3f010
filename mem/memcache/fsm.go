package memcache

import (
	"fmt"

	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

// fsmID names the state machines of the memory cache. The arbiters and the
// multiplexers use them as requester identities.
type fsmID int

const (
	fsmTgtCmd fsmID = iota
	fsmRead
	fsmWrite
	fsmLLSC
	fsmCleanup
	fsmXRAMCmd
	fsmIXRRsp
	fsmXRAMRsp
	fsmInitCmd
	fsmInitRsp
	fsmTgtRsp
	numFSMs
)

var fsmNames = [numFSMs]string{
	"TGT_CMD", "READ", "WRITE", "LLSC", "CLEANUP", "XRAM_CMD", "IXR_RSP",
	"XRAM_RSP", "INIT_CMD", "INIT_RSP", "TGT_RSP",
}

func (id fsmID) String() string {
	if id >= 0 && id < numFSMs {
		return fsmNames[id]
	}

	return fmt.Sprintf("fsmID(%d)", int(id))
}

// Tick order: the multiplexers drain the slots filled in earlier cycles
// before the producers run.
var tickOrder = []fsmID{
	fsmTgtRsp, fsmXRAMCmd, fsmInitCmd,
	fsmTgtCmd, fsmRead, fsmWrite, fsmLLSC, fsmCleanup,
	fsmIXRRsp, fsmXRAMRsp, fsmInitRsp,
}

type resource int

const (
	resDir resource = iota
	resTRT
	resUPT
	numResources
)

func (r resource) String() string {
	return [...]string{"DIR", "TRT", "UPT"}[r]
}

// A stateMachine advances by one step per cycle. wants reports the resources
// needed in the current state; acquiring is true for a resource that the state
// is still waiting for.
type stateMachine interface {
	sim.Ticker
	stateName() string
	wants(r resource) bool
	acquiring(r resource) bool
}

func stateString(names []string, s int) string {
	if s >= 0 && s < len(names) {
		return names[s]
	}

	return fmt.Sprintf("State(%d)", s)
}

// xramCmd is a line transfer requested to XRAM_CMD.
type xramCmd struct {
	trtIndex int
	put      bool
	nline    uint64
	data     []uint32
	parentID string
}

type coherenceTarget struct {
	srcID       int
	instruction bool
}

// initCmd is a coherence fan-out requested to INIT_CMD.
type initCmd struct {
	ref       vci.UPTRef
	isUpdate  bool
	brdcast   bool
	nline     uint64
	wordIndex int
	data      []uint32
	be        []uint8
	targets   []coherenceTarget
	parentID  string
	next      int
}
