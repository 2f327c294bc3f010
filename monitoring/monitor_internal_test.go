package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/soclib/sim"
)

type sampleComponent struct {
	*sim.ComponentBase

	buffer sim.Buffer
	ticked int
}

func (c *sampleComponent) Handle(_ sim.Event) error {
	return nil
}

func (c *sampleComponent) NotifyRecv(_ sim.Port) {}

func (c *sampleComponent) NotifyPortFree(_ sim.Port) {}

func (c *sampleComponent) TickLater() {
	c.ticked++
}

func (c *sampleComponent) FSMStates() map[string]string {
	return map[string]string{"READ": "IDLE", "WRITE": "WAIT_UPT"}
}

func (c *sampleComponent) Grants() map[string]string {
	return map[string]string{"DIR": "WRITE"}
}

func newSampleComponent() *sampleComponent {
	c := &sampleComponent{
		ComponentBase: sim.NewComponentBase("Comp"),
		buffer:        sim.NewBuffer("Comp.Buf", 10),
	}

	c.AddPort("Port1", sim.NewPort(c, 2, 2, "Comp.Port1"))

	return c
}

type plainComponent struct {
	*sim.ComponentBase
}

func (c *plainComponent) Handle(_ sim.Event) error { return nil }

func (c *plainComponent) NotifyRecv(_ sim.Port) {}

func (c *plainComponent) NotifyPortFree(_ sim.Port) {}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		c      *sampleComponent
		engine *sim.SerialEngine
	)

	get := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		m.router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

		return rec
	}

	bufferByName := func(name string) sim.Buffer {
		for _, b := range m.buffers {
			if b.Name() == name {
				return b
			}
		}

		Fail("buffer " + name + " not registered")

		return nil
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		m = NewMonitor()
		m.RegisterEngine(engine)

		c = newSampleComponent()
		m.RegisterComponent(c)
	})

	It("should register components and internal buffers", func() {
		Expect(m.components).To(HaveLen(1))
		Expect(m.buffers).To(HaveLen(3))
	})

	It("should refuse privileged port numbers", func() {
		m.WithPortNumber(80)
		Expect(m.portNumber).To(Equal(0))

		m.WithPortNumber(8080)
		Expect(m.portNumber).To(Equal(8080))
	})

	It("should report the current time", func() {
		rec := get("/api/now")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal(`{"now":0.0000000000}`))
	})

	It("should pause and continue the engine", func() {
		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))
	})

	It("should list components", func() {
		rec := get("/api/list_components")

		var names []string
		Expect(json.Unmarshal(rec.Body.Bytes(), &names)).To(Succeed())
		Expect(names).To(Equal([]string{"Comp"}))
	})

	It("should tick a ticking component", func() {
		rec := get("/api/tick/Comp")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(c.ticked).To(Equal(1))
	})

	It("should not tick a component that cannot tick", func() {
		m.RegisterComponent(&plainComponent{
			ComponentBase: sim.NewComponentBase("Plain"),
		})

		Expect(get("/api/tick/Plain").Code).
			To(Equal(http.StatusMethodNotAllowed))
	})

	It("should answer 404 for unknown components", func() {
		Expect(get("/api/tick/Nobody").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/fsm/Nobody").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/component/Nobody").Code).
			To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		Expect(get("/api/field/notjson").Code).To(Equal(http.StatusBadRequest))
	})

	It("should report state machines and grants", func() {
		rec := get("/api/fsm/Comp")

		rsp := fsmRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.States).To(HaveKeyWithValue("WRITE", "WAIT_UPT"))
		Expect(rsp.Grants).To(HaveKeyWithValue("DIR", "WRITE"))
	})

	Context("when listing buffers", func() {
		BeforeEach(func() {
			for i := 0; i < 5; i++ {
				bufferByName("Comp.Buf").Push(i)
			}

			in := bufferByName("Comp.Port1.IncomingBuf")
			in.Push(1)
			in.Push(2)
		})

		decode := func(rec *httptest.ResponseRecorder) []bufferRsp {
			var rsp []bufferRsp
			Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())

			return rsp
		}

		It("should sort by percentage by default", func() {
			rsp := decode(get("/api/hangdetector/buffers"))

			Expect(rsp).To(HaveLen(3))
			Expect(rsp[0].Buffer).To(Equal("Comp.Port1.IncomingBuf"))
			Expect(rsp[1].Buffer).To(Equal("Comp.Buf"))
		})

		It("should sort by level", func() {
			rsp := decode(get("/api/hangdetector/buffers?sort=level&limit=1"))

			Expect(rsp).To(HaveLen(1))
			Expect(rsp[0]).To(Equal(bufferRsp{
				Buffer: "Comp.Buf", Level: 5, Cap: 10,
			}))
		})

		It("should skip the offset", func() {
			rsp := decode(get("/api/hangdetector/buffers?offset=2"))

			Expect(rsp).To(HaveLen(1))
			Expect(rsp[0].Buffer).To(Equal("Comp.Port1.OutgoingBuf"))
		})

		It("should reject unknown sort methods", func() {
			Expect(get("/api/hangdetector/buffers?sort=name").Code).
				To(Equal(http.StatusBadRequest))
		})
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("Ops", 10)
		bar.IncrementInProgress(3)
		bar.MoveInProgressToFinished(2)

		var bars []map[string]any
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &bars)).
			To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]).To(HaveKeyWithValue("name", "Ops"))
		Expect(bars[0]).To(HaveKeyWithValue("finished", float64(2)))
		Expect(bars[0]).To(HaveKeyWithValue("in_progress", float64(1)))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})

	It("should serve the page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})
})
