package graph_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/graph"
	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/storage"
	"github.com/papercomputeco/spool/pkg/storage/inmemory"
)

var _ = Describe("Apply", func() {
	var (
		ctx context.Context
		drv *inmemory.Driver
		g   *graph.Graph
	)

	BeforeEach(func() {
		ctx = context.Background()
		drv = inmemory.NewDriver()
		g = graph.New("test-session", drv)

		v := g.View()
		_, err := v.AppendText(ctx, llm.RoleSystem, "sys")
		Expect(err).NotTo(HaveOccurred())
		_, err = v.AppendText(ctx, llm.RoleUser, "question")
		Expect(err).NotTo(HaveOccurred())
		_, err = v.AppendText(ctx, llm.RoleAssistant, "answer")
		Expect(err).NotTo(HaveOccurred())
		_, err = v.SetText(ctx, 1, "better question")
		Expect(err).NotTo(HaveOccurred())
	})

	records := func() []*storage.Record {
		var out []*storage.Record
		Expect(drv.Replay(ctx, func(rec *storage.Record) error {
			out = append(out, rec)
			return nil
		})).To(Succeed())
		return out
	}

	replayInto := func(recs []*storage.Record) (*graph.Graph, error) {
		replayed := graph.New("test-session", nil)
		for _, rec := range recs {
			if err := replayed.Apply(rec); err != nil {
				return nil, err
			}
		}
		return replayed, nil
	}

	It("rebuilds an identical graph from the log", func() {
		replayed, err := replayInto(records())
		Expect(err).NotTo(HaveOccurred())

		Expect(replayed.Len()).To(Equal(g.Len()))
		Expect(replayed.ActivePath()).To(Equal(g.ActivePath()))

		// The pre-edit chain survives replay too.
		for _, id := range g.ActivePath() {
			Expect(replayed.Has(id)).To(BeTrue())
		}

		want, err := g.Export(g.View().Frontier())
		Expect(err).NotTo(HaveOccurred())
		got, err := replayed.Export(replayed.View().Frontier())
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Len()).To(Equal(want.Len()))
		for i := range got.Entries {
			Expect(got.Entries[i].Node.ID).To(Equal(want.Entries[i].Node.ID))
		}
	})

	It("preserves slot histories across replay", func() {
		replayed, err := replayInto(records())
		Expect(err).NotTo(HaveOccurred())

		editedID := replayed.ActivePath()[1]
		slotID, err := replayed.SlotOf(editedID)
		Expect(err).NotTo(HaveOccurred())

		history, err := replayed.SlotHistory(slotID)
		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(2))
		Expect(history[1]).To(Equal(editedID))
	})

	It("rejects a node whose payload does not match its id", func() {
		recs := records()
		for _, rec := range recs {
			if rec.Kind == storage.KindNodeCreated {
				rec.Node.Content = llm.TextContent("tampered")
				break
			}
		}

		_, err := replayInto(recs)
		Expect(err).To(BeAssignableToTypeOf(storage.CorruptError{}))

		var immutable graph.ImmutabilityError
		Expect(errors.As(err, &immutable)).To(BeTrue())
		Expect(immutable.ID).NotTo(BeEmpty())
	})

	It("does not share payload state with the replayed records", func() {
		recs := records()
		replayed, err := replayInto(recs)
		Expect(err).NotTo(HaveOccurred())

		var nodeRec *storage.Record
		for _, rec := range recs {
			if rec.Kind == storage.KindNodeCreated {
				nodeRec = rec
				break
			}
		}
		Expect(nodeRec).NotTo(BeNil())

		node, err := replayed.Get(nodeRec.Node.ID)
		Expect(err).NotTo(HaveOccurred())
		want := node.Text()

		nodeRec.Node.Content[0].Text = "scribbled"

		node, err = replayed.Get(nodeRec.Node.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(node.Text()).To(Equal(want))
	})

	It("rejects an edge contradicting the child's recorded parent", func() {
		recs := records()

		// The third node's recorded parent is the second; an edge claiming
		// the root as its parent contradicts the log.
		var nodes []*storage.Record
		for _, rec := range recs {
			if rec.Kind == storage.KindNodeCreated {
				nodes = append(nodes, rec)
			}
		}
		Expect(len(nodes)).To(BeNumerically(">=", 3))

		_, err := replayInto(append(recs, &storage.Record{
			GraphID: "test-session",
			Kind:    storage.KindEdgeAdded,
			Edge:    &storage.EdgeRecord{Parent: nodes[0].Node.ID, Child: nodes[2].Node.ID},
		}))
		Expect(err).To(BeAssignableToTypeOf(storage.CorruptError{}))
	})

	It("rejects an edge referencing an unknown node", func() {
		recs := records()
		_, err := replayInto(append(recs, &storage.Record{
			GraphID: "test-session",
			Kind:    storage.KindEdgeAdded,
			Edge:    &storage.EdgeRecord{Parent: "missing", Child: recs[0].Node.ID},
		}))
		Expect(err).To(BeAssignableToTypeOf(storage.CorruptError{}))
	})

	It("rejects a slot write referencing an unknown node", func() {
		recs := records()
		_, err := replayInto(append(recs, &storage.Record{
			GraphID: "test-session",
			Kind:    storage.KindSlotVersionSet,
			Slot:    &storage.SlotRecord{SlotID: "slot-x", NodeID: "missing"},
		}))
		Expect(err).To(BeAssignableToTypeOf(storage.CorruptError{}))
	})

	It("rejects records for a different graph", func() {
		replayed := graph.New("other-graph", nil)
		err := replayed.Apply(records()[0])
		Expect(err).To(BeAssignableToTypeOf(storage.CorruptError{}))
	})

	It("rejects unknown record kinds", func() {
		replayed := graph.New("test-session", nil)
		err := replayed.Apply(&storage.Record{GraphID: "test-session", Kind: "mystery"})
		Expect(err).To(BeAssignableToTypeOf(storage.CorruptError{}))
	})

	It("rejects records missing their payload", func() {
		replayed := graph.New("test-session", nil)
		err := replayed.Apply(&storage.Record{GraphID: "test-session", Kind: storage.KindNodeCreated})
		Expect(err).To(BeAssignableToTypeOf(storage.CorruptError{}))
	})
})
