package graph_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/graph"
	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/storage/inmemory"
)

// mapResolver is a test stand-in for a session's subgraph registry.
type mapResolver map[string]*graph.Graph

func (m mapResolver) Subgraph(handle string) (*graph.Graph, bool) {
	g, ok := m[handle]
	return g, ok
}

var _ = Describe("Export", func() {
	var (
		ctx context.Context
		g   *graph.Graph
		v   *graph.View
	)

	BeforeEach(func() {
		ctx = context.Background()
		g = graph.New("test-session", inmemory.NewDriver())
		v = g.View()

		_, err := v.AppendText(ctx, llm.RoleSystem, "sys")
		Expect(err).NotTo(HaveOccurred())
		_, err = v.AppendText(ctx, llm.RoleUser, "question")
		Expect(err).NotTo(HaveOccurred())
		_, err = v.AppendText(ctx, llm.RoleAssistant, "answer")
		Expect(err).NotTo(HaveOccurred())
	})

	It("linearizes the causal chain oldest first", func() {
		transcript, err := g.Export(v.Frontier())
		Expect(err).NotTo(HaveOccurred())

		Expect(transcript.Len()).To(Equal(3))
		Expect(transcript.Entries[0].Node.Role).To(Equal(llm.RoleSystem))
		Expect(transcript.Entries[1].Node.Role).To(Equal(llm.RoleUser))
		Expect(transcript.Entries[2].Node.Role).To(Equal(llm.RoleAssistant))
	})

	It("flattens into provider-facing messages", func() {
		transcript, err := g.Export(v.Frontier())
		Expect(err).NotTo(HaveOccurred())

		msgs := transcript.Messages()
		Expect(msgs).To(HaveLen(3))
		Expect(msgs[2].Role).To(Equal(llm.RoleAssistant))
		Expect(msgs[2].GetText()).To(Equal("answer"))
	})

	It("is unaffected by later edits", func() {
		answer := v.Frontier()

		before, err := g.Export(answer)
		Expect(err).NotTo(HaveOccurred())

		_, err = v.SetText(ctx, 1, "better question")
		Expect(err).NotTo(HaveOccurred())

		after, err := g.Export(answer)
		Expect(err).NotTo(HaveOccurred())

		Expect(after.Len()).To(Equal(before.Len()))
		for i := range after.Entries {
			Expect(after.Entries[i].Node.ID).To(Equal(before.Entries[i].Node.ID))
		}
		Expect(after.Entries[1].Node.Text()).To(Equal("question"))
	})

	It("exports the new chain after an edit and a fresh append", func() {
		_, err := v.SetText(ctx, 1, "better question")
		Expect(err).NotTo(HaveOccurred())
		_, err = v.AppendText(ctx, llm.RoleAssistant, "better answer")
		Expect(err).NotTo(HaveOccurred())

		transcript, err := g.Export(v.Frontier())
		Expect(err).NotTo(HaveOccurred())

		Expect(transcript.Len()).To(Equal(3))
		Expect(transcript.Entries[1].Node.Text()).To(Equal("better question"))
		Expect(transcript.Entries[2].Node.Text()).To(Equal("better answer"))
	})

	It("fails with NotFoundError for unknown ids", func() {
		_, err := g.Export("missing")
		Expect(err).To(BeAssignableToTypeOf(graph.NotFoundError{}))
	})

	It("fails with AmbiguousParentError when a node has two causal parents", func() {
		a, err := g.Put(ctx, graph.Draft{Role: llm.RoleUser, Content: llm.TextContent("a")})
		Expect(err).NotTo(HaveOccurred())
		b, err := g.Put(ctx, graph.Draft{Role: llm.RoleUser, Content: llm.TextContent("b")})
		Expect(err).NotTo(HaveOccurred())
		child, err := g.Put(ctx, graph.Draft{Role: llm.RoleAssistant, Content: llm.TextContent("child"), Parent: a})
		Expect(err).NotTo(HaveOccurred())

		Expect(g.Connect(ctx, a, child)).To(Succeed())
		Expect(g.Connect(ctx, b, child)).To(Succeed())

		_, err = g.Export(child)
		Expect(err).To(BeAssignableToTypeOf(graph.AmbiguousParentError{}))
	})

	Describe("ExportRecursive", func() {
		var (
			sub      *graph.Graph
			resolver mapResolver
		)

		BeforeEach(func() {
			sub = graph.New("sub-handle", inmemory.NewDriver())
			sv := sub.View()

			_, err := sv.AppendText(ctx, llm.RoleSystem, "subagent sys")
			Expect(err).NotTo(HaveOccurred())
			_, err = sv.AppendText(ctx, llm.RoleUser, "delegated task")
			Expect(err).NotTo(HaveOccurred())
			_, err = sv.AppendText(ctx, llm.RoleAssistant, "delegated result")
			Expect(err).NotTo(HaveOccurred())

			resolver = mapResolver{"sub-handle": sub}

			_, err = v.Append(ctx, llm.RoleTool,
				llm.TextContent("tool result"),
				graph.WithSubgraph(nil, "sub-handle"),
			)
			Expect(err).NotTo(HaveOccurred())
		})

		It("attaches the nested conversation to the owning entry", func() {
			transcript, err := g.ExportRecursive(v.Frontier(), resolver)
			Expect(err).NotTo(HaveOccurred())

			Expect(transcript.Len()).To(Equal(4))
			entry := transcript.Entries[3]
			Expect(entry.Node.Role).To(Equal(llm.RoleTool))
			Expect(entry.Subgraph).NotTo(BeNil())
			Expect(entry.Subgraph.Len()).To(Equal(3))
			Expect(entry.Subgraph.Entries[2].Node.Text()).To(Equal("delegated result"))
		})

		It("keeps nested node identity out of the outer sequence", func() {
			transcript, err := g.ExportRecursive(v.Frontier(), resolver)
			Expect(err).NotTo(HaveOccurred())

			outer := make(map[string]bool)
			for _, e := range transcript.Entries {
				outer[e.Node.ID] = true
			}
			for _, e := range transcript.Entries[3].Subgraph.Entries {
				Expect(outer).NotTo(HaveKey(e.Node.ID))
			}
		})

		It("leaves subgraphs out of plain exports", func() {
			transcript, err := g.Export(v.Frontier())
			Expect(err).NotTo(HaveOccurred())
			Expect(transcript.Entries[3].Subgraph).To(BeNil())
		})

		It("yields an empty nested transcript for unknown handles", func() {
			transcript, err := g.ExportRecursive(v.Frontier(), mapResolver{})
			Expect(err).NotTo(HaveOccurred())

			Expect(transcript.Entries[3].Subgraph).NotTo(BeNil())
			Expect(transcript.Entries[3].Subgraph.Len()).To(BeZero())
		})

		It("recurses through nested subgraphs", func() {
			inner := graph.New("inner-handle", inmemory.NewDriver())
			iv := inner.View()
			_, err := iv.AppendText(ctx, llm.RoleAssistant, "innermost")
			Expect(err).NotTo(HaveOccurred())
			resolver["inner-handle"] = inner

			sv := sub.View()
			_, err = sv.Append(ctx, llm.RoleTool,
				llm.TextContent("nested tool result"),
				graph.WithSubgraph(nil, "inner-handle"),
			)
			Expect(err).NotTo(HaveOccurred())

			transcript, err := g.ExportRecursive(v.Frontier(), resolver)
			Expect(err).NotTo(HaveOccurred())

			nested := transcript.Entries[3].Subgraph
			Expect(nested.Len()).To(Equal(4))
			Expect(nested.Entries[3].Subgraph).NotTo(BeNil())
			Expect(nested.Entries[3].Subgraph.Entries[0].Node.Text()).To(Equal("innermost"))
		})
	})
})
