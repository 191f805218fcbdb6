package calltrace

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/tracekit/callscope/hooking"
)

type eventRecordingHook struct {
	ctxs []hooking.HookCtx
}

func (h *eventRecordingHook) Func(ctx hooking.HookCtx) {
	h.ctxs = append(h.ctxs, ctx)
}

var _ = Describe("Instrumentation API", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *MockNamedHookable
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = NewMockNamedHookable(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("when the domain has no hooks", func() {
		BeforeEach(func() {
			domain.EXPECT().NumHooks().Return(0).AnyTimes()
		})

		It("should skip the call event entirely", func() {
			FuncStart(domain, "add", "add", Val("a", 1))
		})

		It("should skip the return event entirely", func() {
			FuncEnd(domain, "add", 2)
		})
	})

	Context("when the domain has hooks", func() {
		BeforeEach(func() {
			domain.EXPECT().NumHooks().Return(1).AnyTimes()
			domain.EXPECT().Name().Return("test").AnyTimes()
		})

		It("should invoke the hooks with a call event", func() {
			domain.EXPECT().
				InvokeHook(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					Expect(ctx.Pos).To(
						BeIdenticalTo(HookPosFuncCall))

					ev := ctx.Item.(CallEvent)
					Expect(ev.CallableID).To(Equal("add"))
					Expect(ev.Name).To(Equal("add"))
					Expect(ev.Args).To(HaveExactElements(
						Arg{"a", "2"}, Arg{"b", "3"}))
				})

			FuncStart(domain, "add", "add", Val("a", 2), Val("b", 3))
		})

		It("should invoke the hooks with a return event", func() {
			domain.EXPECT().
				InvokeHook(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					Expect(ctx.Pos).To(
						BeIdenticalTo(HookPosFuncReturn))

					ev := ctx.Item.(ReturnEvent)
					Expect(ev.CallableID).To(Equal("add"))
					Expect(ev.Value).To(Equal("5"))
				})

			FuncEnd(domain, "add", 5)
		})

		It("should assign increasing sequence numbers", func() {
			var seqs []uint64
			domain.EXPECT().
				InvokeHook(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					switch ev := ctx.Item.(type) {
					case CallEvent:
						seqs = append(seqs, ev.Seq)
					case ReturnEvent:
						seqs = append(seqs, ev.Seq)
					}
				}).
				Times(2)

			FuncStart(domain, "work", "work")
			FuncEnd(domain, "work", nil)

			Expect(seqs).To(HaveLen(2))
			Expect(seqs[1]).To(BeNumerically(">", seqs[0]))
		})

		It("should panic on an empty callable ID", func() {
			Expect(func() {
				FuncStart(domain, "", "add")
			}).To(Panic())

			Expect(func() {
				FuncEnd(domain, "", 1)
			}).To(Panic())
		})

		It("should panic on an empty name", func() {
			Expect(func() {
				FuncStart(domain, "add", "")
			}).To(Panic())
		})
	})

	It("should panic when the domain has no name", func() {
		domain.EXPECT().NumHooks().Return(1)
		domain.EXPECT().Name().Return("")

		Expect(func() {
			FuncStart(domain, "add", "add")
		}).To(Panic())
	})

	Describe("Trace", func() {
		It("should emit matching call and return events", func() {
			realDomain := NewDomain("test")
			hook := &eventRecordingHook{}
			realDomain.AcceptHook(hook)

			done := Trace(realDomain, "add", "add",
				Val("a", 2), Val("b", 3))
			done(5)

			Expect(hook.ctxs).To(HaveLen(2))

			callEv := hook.ctxs[0].Item.(CallEvent)
			retEv := hook.ctxs[1].Item.(ReturnEvent)
			Expect(callEv.CallableID).To(Equal("add"))
			Expect(retEv.CallableID).To(Equal("add"))
			Expect(retEv.Value).To(Equal("5"))
		})
	})

	Describe("MethodName", func() {
		It("should join the owner and the method", func() {
			Expect(MethodName("Stack", "Push")).To(Equal("Stack.Push"))
		})
	})
})
