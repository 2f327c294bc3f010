package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type recordingHandler struct {
	engine Engine
	times  []VTimeInSec
	follow VTimeInSec
}

func (h *recordingHandler) Handle(e Event) error {
	h.times = append(h.times, e.Time())

	if h.follow > 0 && len(h.times) == 1 {
		h.engine.Schedule(NewEventBase(h.follow, h))
	}

	return nil
}

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run events in time order", func() {
		h := &recordingHandler{engine: engine}

		engine.Schedule(NewEventBase(3, h))
		engine.Schedule(NewEventBase(1, h))
		engine.Schedule(NewEventBase(2, h))

		Expect(engine.Run()).To(Succeed())
		Expect(h.times).To(Equal([]VTimeInSec{1, 2, 3}))
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(3)))
	})

	It("should run events scheduled while running", func() {
		h := &recordingHandler{engine: engine, follow: 5}

		engine.Schedule(NewEventBase(1, h))

		Expect(engine.Run()).To(Succeed())
		Expect(h.times).To(Equal([]VTimeInSec{1, 5}))
	})

	It("should run secondary events after primary events of the same time",
		func() {
			order := []string{}
			primary := NewMockHandler(mockCtrl)
			secondary := NewMockHandler(mockCtrl)

			secondaryEvt := NewEventBase(1, secondary)
			secondaryEvt.secondary = true
			engine.Schedule(secondaryEvt)
			engine.Schedule(NewEventBase(1, primary))

			primary.EXPECT().Handle(gomock.Any()).
				DoAndReturn(func(Event) error {
					order = append(order, "primary")
					return nil
				})
			secondary.EXPECT().Handle(gomock.Any()).
				DoAndReturn(func(Event) error {
					order = append(order, "secondary")
					return nil
				})

			Expect(engine.Run()).To(Succeed())
			Expect(order).To(Equal([]string{"primary", "secondary"}))
		})

	It("should stop and return the handler error", func() {
		h := NewMockHandler(mockCtrl)
		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(VTimeInSec(2)).AnyTimes()
		evt.EXPECT().IsSecondary().Return(false).AnyTimes()
		evt.EXPECT().Handler().Return(h)
		h.EXPECT().Handle(evt).Return(errors.New("boom"))

		engine.Schedule(evt)

		Expect(engine.Run()).To(MatchError("boom"))
	})

	It("should panic when scheduling in the past", func() {
		h := &recordingHandler{engine: engine}
		engine.Schedule(NewEventBase(2, h))
		Expect(engine.Run()).To(Succeed())

		Expect(func() { engine.Schedule(NewEventBase(1, h)) }).To(Panic())
	})

	It("should invoke hooks around every event", func() {
		h := &recordingHandler{engine: engine}
		hook := &countingHook{}
		engine.AcceptHook(hook)

		engine.Schedule(NewEventBase(1, h))
		engine.Schedule(NewEventBase(2, h))

		Expect(engine.Run()).To(Succeed())
		Expect(hook.count[HookPosBeforeEvent]).To(Equal(2))
		Expect(hook.count[HookPosAfterEvent]).To(Equal(2))
	})
})

type countingHook struct {
	count map[*HookPos]int
}

func (h *countingHook) Func(ctx HookCtx) {
	if h.count == nil {
		h.count = make(map[*HookPos]int)
	}

	h.count[ctx.Pos]++
}
