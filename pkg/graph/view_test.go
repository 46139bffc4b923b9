package graph_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/graph"
	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/storage/inmemory"
)

var _ = Describe("View", func() {
	var (
		ctx context.Context
		g   *graph.Graph
		v   *graph.View
	)

	BeforeEach(func() {
		ctx = context.Background()
		g = graph.New("test-session", inmemory.NewDriver())
		v = g.View()
	})

	seed := func() {
		_, err := v.AppendText(ctx, llm.RoleSystem, "sys")
		Expect(err).NotTo(HaveOccurred())
		_, err = v.AppendText(ctx, llm.RoleUser, "question")
		Expect(err).NotTo(HaveOccurred())
		_, err = v.AppendText(ctx, llm.RoleAssistant, "answer")
		Expect(err).NotTo(HaveOccurred())
	}

	texts := func() []string {
		out := make([]string, v.Len())
		for i := range out {
			node, err := v.Get(i)
			Expect(err).NotTo(HaveOccurred())
			out[i] = node.Text()
		}
		return out
	}

	Describe("Append", func() {
		It("returns consecutive indexes", func() {
			i, err := v.AppendText(ctx, llm.RoleSystem, "sys")
			Expect(err).NotTo(HaveOccurred())
			Expect(i).To(Equal(0))

			i, err = v.AppendText(ctx, llm.RoleUser, "question")
			Expect(err).NotTo(HaveOccurred())
			Expect(i).To(Equal(1))

			Expect(v.Len()).To(Equal(2))
		})

		It("chains each node to the previous frontier", func() {
			seed()

			answer, err := v.Get(2)
			Expect(err).NotTo(HaveOccurred())
			question, err := v.Get(1)
			Expect(err).NotTo(HaveOccurred())

			Expect(answer.Parent).NotTo(BeNil())
			Expect(*answer.Parent).To(Equal(question.ID))
		})
	})

	Describe("Get", func() {
		It("fails for out-of-range indexes", func() {
			seed()

			_, err := v.Get(-1)
			Expect(err).To(BeAssignableToTypeOf(graph.NotFoundError{}))
			_, err = v.Get(3)
			Expect(err).To(BeAssignableToTypeOf(graph.NotFoundError{}))
		})
	})

	Describe("Set", func() {
		It("forks the slot and moves the active path", func() {
			seed()

			newID, err := v.SetText(ctx, 1, "better question")
			Expect(err).NotTo(HaveOccurred())

			// The edit truncates the active view at the edited position;
			// nothing has been generated after the new version yet.
			Expect(texts()).To(Equal([]string{"sys", "better question"}))

			node, err := g.Get(newID)
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Role).To(Equal(llm.RoleUser))
		})

		It("keeps both versions in the slot history", func() {
			seed()

			oldNode, err := v.Get(1)
			Expect(err).NotTo(HaveOccurred())

			newID, err := v.SetText(ctx, 1, "better question")
			Expect(err).NotTo(HaveOccurred())

			slotID, err := g.SlotOf(newID)
			Expect(err).NotTo(HaveOccurred())
			history, err := g.SlotHistory(slotID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(Equal([]string{oldNode.ID, newID}))
		})

		It("leaves downstream nodes intact for export", func() {
			seed()

			oldAnswer, err := v.Get(2)
			Expect(err).NotTo(HaveOccurred())

			_, err = v.SetText(ctx, 1, "better question")
			Expect(err).NotTo(HaveOccurred())

			// The old answer is no longer on the active path but its
			// causal chain is untouched.
			Expect(g.Has(oldAnswer.ID)).To(BeTrue())
			transcript, err := g.Export(oldAnswer.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(transcript.Len()).To(Equal(3))
			Expect(transcript.Entries[1].Node.Text()).To(Equal("question"))
		})

		It("resumes appending after the edited node", func() {
			seed()

			_, err := v.SetText(ctx, 1, "better question")
			Expect(err).NotTo(HaveOccurred())

			i, err := v.AppendText(ctx, llm.RoleAssistant, "better answer")
			Expect(err).NotTo(HaveOccurred())
			Expect(i).To(Equal(2))

			Expect(texts()).To(Equal([]string{"sys", "better question", "better answer"}))
		})

		It("can restore an old version by re-setting its content", func() {
			seed()

			_, err := v.SetText(ctx, 1, "better question")
			Expect(err).NotTo(HaveOccurred())

			// Content addressing collapses the re-edit onto the original
			// node, so the slot re-activates it and the old downstream
			// answer reappears on the active path.
			_, err = v.SetText(ctx, 1, "question")
			Expect(err).NotTo(HaveOccurred())

			Expect(texts()).To(Equal([]string{"sys", "question", "answer"}))
		})

		It("fails for out-of-range indexes", func() {
			seed()

			_, err := v.SetText(ctx, 5, "nope")
			Expect(err).To(BeAssignableToTypeOf(graph.NotFoundError{}))
		})

		It("surfaces concurrent edits as ConflictError", func() {
			seed()

			// Simulate a second writer that observed the original version
			// before this view's edit landed.
			stale, err := v.Get(1)
			Expect(err).NotTo(HaveOccurred())
			slotID, err := g.SlotOf(stale.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = v.SetText(ctx, 1, "better question")
			Expect(err).NotTo(HaveOccurred())

			sysNode, err := v.Get(0)
			Expect(err).NotTo(HaveOccurred())
			rivalID, err := g.Put(ctx, graph.Draft{
				Role:    llm.RoleUser,
				Content: llm.TextContent("rival question"),
				Parent:  sysNode.ID,
			})
			Expect(err).NotTo(HaveOccurred())

			err = g.ForkSlot(ctx, slotID, rivalID, stale.ID)
			Expect(err).To(BeAssignableToTypeOf(graph.ConflictError{}))
		})
	})

	Describe("Frontier", func() {
		It("is empty for an empty conversation", func() {
			Expect(v.Frontier()).To(BeEmpty())
		})

		It("tracks the end of the active path", func() {
			seed()

			node, err := v.Get(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Frontier()).To(Equal(node.ID))
		})
	})
})
