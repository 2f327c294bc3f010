package memcache

import (
	"github.com/sarchlab/soclib/mem/memcache/internal/copyset"
	"github.com/sarchlab/soclib/mem/memcache/internal/directory"
	"github.com/sarchlab/soclib/mem/memcache/internal/trt"
	"github.com/sarchlab/soclib/mem/memcache/internal/upt"
	"github.com/sarchlab/soclib/mem/vci"
	"github.com/sarchlab/soclib/sim"
)

// pendingWrite is a write or a store-conditional in progress. Data and BE
// cover the whole line.
type pendingWrite struct {
	ident   vci.Ident
	src     sim.RemotePort
	reqID   string
	addr    uint64
	nline   uint64
	rspKind upt.RspKind

	wordIndex int
	numWords  int
	be        []uint8
	data      []uint32

	set, way int
	entry    directory.Entry

	trtIndex int
	uptIndex int
	uptTag   uint64
	brdcast  bool
	targets  []coherenceTarget
	line     []uint32
}

func (c *Comp) newPendingWrite(
	req vci.TargetReq,
	data []uint32,
	be []uint8,
	kind upt.RspKind,
) *pendingWrite {
	n := c.dir.WordsPerLine()
	w := &pendingWrite{
		ident:     req.GetIdent(),
		src:       req.Meta().Src,
		reqID:     req.Meta().ID,
		addr:      req.GetAddress(),
		nline:     c.dir.NLine(req.GetAddress()),
		rspKind:   kind,
		wordIndex: c.dir.WordIndex(req.GetAddress()),
		numWords:  len(data),
		be:        make([]uint8, n),
		data:      make([]uint32, n),
		uptIndex:  -1,
	}

	for i := range data {
		w.be[w.wordIndex+i] = be[i]
		w.data[w.wordIndex+i] = data[i]
	}

	return w
}

type writeDecision int

const (
	hitLocked writeDecision = iota
	hitInval
	hitUpdate
	hitLocal
)

// decideHitWrite chooses how a write hitting a line keeps the sharers
// coherent. Instruction caches and lines in counter mode are invalidated;
// data sharers other than the writer are updated.
func decideHitWrite(e directory.Entry, srcID int) writeDecision {
	switch {
	case e.Lock:
		return hitLocked
	case e.IsCnt || !e.ICopies.Empty():
		return hitInval
	case len(otherDataCopies(e, srcID)) > 0:
		return hitUpdate
	}

	return hitLocal
}

func otherDataCopies(e directory.Entry, srcID int) []coherenceTarget {
	var targets []coherenceTarget

	for _, id := range e.DCopies.Members() {
		if id != srcID {
			targets = append(targets, coherenceTarget{srcID: id})
		}
	}

	return targets
}

// invalTargets lists the caches to invalidate for a line. A line in counter
// mode is invalidated in every cache.
func (c *Comp) invalTargets(e directory.Entry) ([]coherenceTarget, bool) {
	var targets []coherenceTarget

	if e.IsCnt {
		for id, p := range c.coherenceTargets {
			if p != "" {
				targets = append(targets, coherenceTarget{srcID: id})
			}
		}

		return targets, true
	}

	for _, id := range e.DCopies.Members() {
		targets = append(targets, coherenceTarget{srcID: id})
	}

	for _, id := range e.ICopies.Members() {
		targets = append(targets, coherenceTarget{srcID: id, instruction: true})
	}

	return targets, false
}

func pendingOf(targets []coherenceTarget) copyset.CopySet {
	s := copyset.CopySet{}
	for _, t := range targets {
		s.Add(upt.AckKey(t.srcID, t.instruction))
	}

	return s
}

// lookupForWrite reads the directory for the write. The caller holds the
// directory.
func (c *Comp) lookupForWrite(w *pendingWrite) bool {
	e, way, hit := c.dir.ReadLine(w.nline)
	w.entry = e
	w.set = c.dir.SetOf(w.nline)
	w.way = way

	return hit
}

// commitHitWrite writes the data into the cached line. The caller holds the
// directory.
func (c *Comp) commitHitWrite(w *pendingWrite, lock bool) {
	for i := range w.be {
		if w.be[i] != 0 {
			c.store.WriteWord(w.set, w.way, i, w.data[i], w.be[i])
		}
	}

	w.entry.Dirty = true
	w.entry.Lock = w.entry.Lock || lock
	c.dir.Write(w.set, w.way, w.entry)
	c.dir.Visit(w.set, w.way)
	c.atomic.Reset(w.nline)
}

// allocUpdate registers a multicast update. The caller holds the directory
// and the update table, and has checked that the table is not full.
func (c *Comp) allocUpdate(w *pendingWrite) {
	w.targets = otherDataCopies(w.entry, w.ident.SrcID)
	w.brdcast = false
	c.allocUPT(w, true)
}

// allocInval registers an invalidate of the line. The caller holds the
// directory, the transaction table, and the update table.
func (c *Comp) allocInval(w *pendingWrite) {
	w.targets, w.brdcast = c.invalTargets(w.entry)
	if len(w.targets) == 0 {
		w.uptIndex = -1
		return
	}

	c.allocUPT(w, false)
}

func (c *Comp) allocUPT(w *pendingWrite, isUpdate bool) {
	index, ok := c.upt.Set(upt.SetArgs{
		IsUpdate: isUpdate,
		Brdcast:  w.brdcast,
		NeedRsp:  true,
		SrcID:    w.ident.SrcID,
		TrdID:    w.ident.TrdID,
		PktID:    w.ident.PktID,
		NLine:    w.nline,
		Pending:  pendingOf(w.targets),
		RspKind:  w.rspKind,
		Src:      w.src,
		ReqID:    w.reqID,
	})
	if !ok {
		panic("update table full after check")
	}

	w.uptIndex = index
	w.uptTag = c.upt.Read(index).Tag
}

// canAllocUPT tells if a new coherence transaction on the line can start.
// At most one transaction per line is in flight.
func (c *Comp) canAllocUPT(nline uint64) bool {
	if c.upt.IsFull() {
		return false
	}

	_, found := c.upt.SearchInval(nline)

	return !found
}

// invalAndWriteBack writes the data, turns the line into a write-back and
// removes it from the directory. The caller holds the directory, the
// transaction table and the update table.
func (c *Comp) invalAndWriteBack(w *pendingWrite) {
	c.commitHitWrite(w, false)
	c.allocInval(w)

	w.line = c.store.ReadLine(w.set, w.way)
	c.trt.Set(w.trtIndex, trt.SetArgs{
		Read:  false,
		NLine: w.nline,
		Data:  w.line,
	})

	c.dir.Inval(w.set, w.way)
}

func (c *Comp) updateCmd(w *pendingWrite) *initCmd {
	return &initCmd{
		ref:       vci.UPTRef{UPTIndex: w.uptIndex, UPTTag: w.uptTag},
		isUpdate:  true,
		nline:     w.nline,
		wordIndex: w.wordIndex,
		data:      w.data[w.wordIndex : w.wordIndex+w.numWords],
		be:        w.be[w.wordIndex : w.wordIndex+w.numWords],
		targets:   w.targets,
		parentID:  w.reqID,
	}
}

func (c *Comp) invalCmd(w *pendingWrite) *initCmd {
	return &initCmd{
		ref:      vci.UPTRef{UPTIndex: w.uptIndex, UPTTag: w.uptTag},
		brdcast:  w.brdcast,
		nline:    w.nline,
		targets:  w.targets,
		parentID: w.reqID,
	}
}

func (c *Comp) putCmd(w *pendingWrite) *xramCmd {
	return &xramCmd{
		trtIndex: w.trtIndex,
		put:      true,
		nline:    w.nline,
		data:     w.line,
		parentID: w.reqID,
	}
}

// rspBuilder prepares a response to a processor request.
func (c *Comp) rspBuilder(
	dst sim.RemotePort,
	ident vci.Ident,
	reqID string,
	err bool,
) vci.RspBuilder {
	return vci.RspBuilder{}.
		WithSrc(c.topPort.AsRemote()).
		WithDst(dst).
		WithIdent(ident).
		WithRspTo(reqID).
		WithError(err)
}

// completionRsp builds the response sent when the coherence transaction of a
// write or a store-conditional completes.
func (c *Comp) completionRsp(e upt.Entry) sim.Msg {
	b := c.rspBuilder(e.Src, vci.Ident{
		SrcID: e.SrcID, TrdID: e.TrdID, PktID: e.PktID,
	}, e.ReqID, false)

	if e.RspKind == upt.RspSC {
		return b.BuildSCRsp(true)
	}

	return b.BuildWriteRsp()
}

// writeRsp answers a write or a store-conditional that completes without
// waiting for acknowledgements.
func (c *Comp) writeRsp(w *pendingWrite) sim.Msg {
	b := c.rspBuilder(w.src, w.ident, w.reqID, false)

	if w.rspKind == upt.RspSC {
		return b.BuildSCRsp(true)
	}

	return b.BuildWriteRsp()
}
