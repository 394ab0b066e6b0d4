package trace_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/certen-health/psurgen/pkg/psur/trace"
)

func TestTrace(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "trace suite")
}

func fields(traceID string, output any) trace.Fields {
	now := time.Now()
	return trace.Fields{
		TraceID:     traceID,
		CaseID:      "CASE-1",
		TraceType:   trace.TypeDataQualification,
		InitiatedAt: now,
		CompletedAt: now.Add(5 * time.Millisecond),
		OutputContent: output,
	}
}

var _ = Describe("Recorder", func() {
	var r *trace.Recorder

	BeforeEach(func() {
		r = trace.NewRecorder()
	})

	Context("a single record", func() {
		It("is assigned chain position zero with no previous hash", func() {
			dtr := r.Record(fields("t1", map[string]any{"a": 1}))

			Expect(dtr.ChainPosition).To(Equal(0))
			Expect(dtr.HashChain.PreviousHash).To(BeNil())
			Expect(dtr.HashChain.ContentHash).NotTo(BeEmpty())
		})

		It("sets the merkle root to the identity of its own content hash", func() {
			dtr := r.Record(fields("t1", map[string]any{"a": 1}))
			Expect(dtr.HashChain.MerkleRoot).To(Equal(dtr.HashChain.ContentHash))
		})

		It("computes duration from initiatedAt to completedAt", func() {
			dtr := r.Record(fields("t1", nil))
			Expect(dtr.DurationMs).To(BeNumerically(">=", 5))
		})
	})

	Context("appending further records", func() {
		It("increments chainPosition monotonically and links previousHash", func() {
			d0 := r.Record(fields("t1", 1))
			d1 := r.Record(fields("t2", 2))
			d2 := r.Record(fields("t3", 3))

			Expect(d1.ChainPosition).To(Equal(1))
			Expect(d2.ChainPosition).To(Equal(2))

			Expect(*d1.HashChain.PreviousHash).To(Equal(d0.HashChain.ContentHash))
			Expect(*d2.HashChain.PreviousHash).To(Equal(d1.HashChain.ContentHash))
		})

		It("refolds the merkle root from scratch on every call", func() {
			r.Record(fields("t1", 1))
			d1 := r.Record(fields("t2", 2))
			d2 := r.Record(fields("t3", 3))

			Expect(d2.HashChain.MerkleRoot).NotTo(Equal(d1.HashChain.MerkleRoot))
		})

		It("produces distinct content hashes for distinct output content", func() {
			d0 := r.Record(fields("t1", map[string]any{"v": 1}))
			d1 := r.Record(fields("t2", map[string]any{"v": 2}))
			Expect(d0.HashChain.ContentHash).NotTo(Equal(d1.HashChain.ContentHash))
		})
	})

	Context("GetChain", func() {
		It("returns a defensive copy that mutation cannot corrupt", func() {
			r.Record(fields("t1", 1))
			r.Record(fields("t2", 2))

			chain := r.GetChain()
			chain[0].TraceID = "tampered"

			Expect(r.GetChain()[0].TraceID).To(Equal("t1"))
		})

		It("reflects the full length of the recorded chain", func() {
			r.Record(fields("t1", 1))
			r.Record(fields("t2", 2))
			r.Record(fields("t3", 3))
			Expect(r.GetChain()).To(HaveLen(3))
			Expect(r.Len()).To(Equal(3))
		})
	})

	Context("ValidateChain on an untampered chain", func() {
		It("reports valid with no errors", func() {
			r.Record(fields("t1", 1))
			r.Record(fields("t2", 2))
			r.Record(fields("t3", 3))

			report := r.ValidateChain()
			Expect(report.Valid).To(BeTrue())
			Expect(report.Errors).To(BeEmpty())
		})
	})

	Context("ValidateChain on a tampered chain", func() {
		It("reports every violation without short-circuiting on the first one", func() {
			for i := 0; i < 5; i++ {
				r.Record(fields("t", i))
			}

			chain := r.GetChain()
			Expect(chain).To(HaveLen(5))

			// Simulate an adversary mutating DTR 3's output content after
			// the fact, by rebuilding a recorder whose internal chain
			// carries the tampered record but an untouched (now stale)
			// hash chain.
			tampered := trace.NewRecorder()
			for i, d := range chain {
				if i == 3 {
					d.OutputContent = "tampered-value"
				}
				tampered.ImportForValidation(d)
			}

			report := tampered.ValidateChain()

			Expect(report.Valid).To(BeFalse())
			Expect(report.Errors).To(ContainElement("DTR 3: content hash mismatch"))
			Expect(report.Errors).To(ContainElement("DTR 4: previous hash does not match prior DTR content hash"))
			Expect(report.Errors).To(HaveLen(2))
		})
	})
})
