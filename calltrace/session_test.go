package calltrace

import (
	"errors"
	"io"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("Session", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *Domain
		emitter  *MockReportEmitter
		session  *Session
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = NewDomain("test")
		emitter = NewMockReportEmitter(mockCtrl)
		session = NewSession(domain).
			WithLogger(log.New(io.Discard, "", 0)).
			WithEmitter(OutputText, emitter)
	})

	AfterEach(func() {
		if session.State() != SessionIdle {
			session.ConfigureOutput(OutputText, "")
			_ = session.End()
		}

		mockCtrl.Finish()
	})

	It("should start idle", func() {
		Expect(session.State()).To(Equal(SessionIdle))
		Expect(domain.NumHooks()).To(Equal(0))
	})

	It("should record calls while active", func() {
		Expect(session.Start()).To(Succeed())

		FuncStart(domain, "add", "add", Val("a", 2), Val("b", 3))
		FuncEnd(domain, "add", 5)

		roots := session.Roots()
		Expect(roots).To(HaveLen(1))
		Expect(roots[0].Name).To(Equal("add"))
		Expect(roots[0].ReturnValue).To(Equal("5"))
	})

	It("should not record calls before start or after end", func() {
		FuncStart(domain, "early", "early")
		FuncEnd(domain, "early", nil)

		Expect(session.Start()).To(Succeed())
		Expect(session.End()).To(Succeed())

		FuncStart(domain, "late", "late")
		FuncEnd(domain, "late", nil)

		Expect(session.Roots()).To(BeEmpty())
	})

	It("should treat a repeated start as a no-op", func() {
		Expect(session.Start()).To(Succeed())

		FuncStart(domain, "work", "work")

		Expect(session.Start()).To(Succeed())

		FuncEnd(domain, "work", "done")

		roots := session.Roots()
		Expect(roots).To(HaveLen(1))
		Expect(roots[0].ReturnValue).To(Equal(`"done"`))
		Expect(domain.NumHooks()).To(Equal(1))
	})

	It("should reject ending an idle session", func() {
		err := session.End()

		var stateErr *InvalidStateError
		Expect(errors.As(err, &stateErr)).To(BeTrue())
		Expect(stateErr.Op).To(Equal("end"))
	})

	It("should reject a second active session", func() {
		Expect(session.Start()).To(Succeed())

		other := NewSession(NewDomain("other"))
		err := other.Start()

		var stateErr *InvalidStateError
		Expect(errors.As(err, &stateErr)).To(BeTrue())
		Expect(other.State()).To(Equal(SessionIdle))
	})

	It("should allow a new session after the previous one ended", func() {
		Expect(session.Start()).To(Succeed())
		Expect(session.End()).To(Succeed())

		otherDomain := NewDomain("other")
		other := NewSession(otherDomain)
		Expect(other.Start()).To(Succeed())
		Expect(other.End()).To(Succeed())
	})

	It("should flush the report on end", func() {
		session.ConfigureOutput(OutputText, "trace.txt")
		Expect(session.Start()).To(Succeed())

		FuncStart(domain, "work", "work")
		FuncEnd(domain, "work", nil)

		emitter.EXPECT().
			Emit(gomock.Len(1), "trace.txt").
			Return(nil)

		Expect(session.End()).To(Succeed())
		Expect(session.State()).To(Equal(SessionIdle))
	})

	It("should finalize unreturned calls before flushing", func() {
		Expect(session.Start()).To(Succeed())

		FuncStart(domain, "outer", "outer")
		FuncStart(domain, "inner", "inner")
		FuncEnd(domain, "inner", 1)

		Expect(session.End()).To(Succeed())

		roots := session.Roots()
		Expect(roots).To(HaveLen(1))
		Expect(roots[0].Returned).To(BeFalse())
		Expect(roots[0].ReturnValue).To(Equal(NoReturnValue))
		Expect(roots[0].Children).To(HaveLen(1))
		Expect(roots[0].Children[0].ReturnValue).To(Equal("1"))
	})

	It("should keep the forest and allow a retry when the flush fails",
		func() {
			session.ConfigureOutput(OutputText, "/bad/path")
			Expect(session.Start()).To(Succeed())

			FuncStart(domain, "work", "work")
			FuncEnd(domain, "work", nil)

			emitter.EXPECT().
				Emit(gomock.Any(), "/bad/path").
				Return(errors.New("unwritable"))

			err := session.End()

			var renderErr *RenderError
			Expect(errors.As(err, &renderErr)).To(BeTrue())
			Expect(session.State()).To(Equal(SessionEnded))
			Expect(session.Roots()).To(HaveLen(1))

			session.ConfigureOutput(OutputText, "good.txt")
			emitter.EXPECT().
				Emit(gomock.Len(1), "good.txt").
				Return(nil)

			Expect(session.End()).To(Succeed())
			Expect(session.State()).To(Equal(SessionIdle))
		})

	It("should fail the flush when no emitter handles the mode", func() {
		session.ConfigureOutput(OutputDatabase, "trace.sqlite3")
		Expect(session.Start()).To(Succeed())

		err := session.End()

		var renderErr *RenderError
		Expect(errors.As(err, &renderErr)).To(BeTrue())
	})

	It("should skip the flush when no target is configured", func() {
		Expect(session.Start()).To(Succeed())
		Expect(session.End()).To(Succeed())
	})

	It("should release the forest when a new session starts", func() {
		Expect(session.Start()).To(Succeed())
		FuncStart(domain, "work", "work")
		FuncEnd(domain, "work", nil)
		Expect(session.End()).To(Succeed())

		Expect(session.Roots()).To(HaveLen(1))

		Expect(session.Start()).To(Succeed())
		Expect(session.Roots()).To(BeEmpty())
		Expect(session.End()).To(Succeed())
	})

	It("should report the active session", func() {
		Expect(Active()).To(BeNil())

		Expect(session.Start()).To(Succeed())
		Expect(Active()).To(BeIdenticalTo(session))

		Expect(session.End()).To(Succeed())
		Expect(Active()).To(BeNil())
	})
})
