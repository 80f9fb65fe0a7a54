package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/leastauthority/gridconverge/internal/subscription"
)

func newTestStore() *Store {
	dir := GinkgoT().TempDir()
	s, err := New(dir, logr.Discard(), nil)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var sampleDetails = subscription.PartialDetails{
	CustomerID:    "cust-1",
	ProductID:     "prod-1",
	CustomerEmail: "customer@example.com",
	BucketName:    "bucket-1",
}

var _ = Describe("Store", func() {
	It("refuses to bootstrap a missing root", func() {
		_, err := New("/no/such/directory/gridconverge-test", logr.Discard(), nil)
		Expect(err).To(HaveOccurred())
	})

	It("allocates the first record ports 10000/10001", func() {
		s := newTestStore()
		r, err := s.Create("sub-1", sampleDetails)
		Expect(err).NotTo(HaveOccurred())
		in, st := r.PortPair()
		Expect(in).To(Equal(10000))
		Expect(st).To(Equal(10001))
		Expect(r.Active).To(BeTrue())
	})

	It("allocates increasing port pairs per existing record, including inactive ones", func() {
		s := newTestStore()
		_, err := s.Create("sub-1", sampleDetails)
		Expect(err).NotTo(HaveOccurred())

		r2, err := s.Create("sub-2", sampleDetails)
		Expect(err).NotTo(HaveOccurred())
		in2, _ := r2.PortPair()
		Expect(in2).To(Equal(10002))

		Expect(s.Deactivate("sub-1")).To(Succeed())

		r3, err := s.Create("sub-3", sampleDetails)
		Expect(err).NotTo(HaveOccurred())
		in3, _ := r3.PortPair()
		Expect(in3).To(Equal(10004), "deactivated records still count toward allocation")
	})

	It("fails with AlreadyExists on a colliding id", func() {
		s := newTestStore()
		_, err := s.Create("sub-1", sampleDetails)
		Expect(err).NotTo(HaveOccurred())

		_, err = s.Create("sub-1", sampleDetails)
		Expect(errors.Is(err, subscription.ErrAlreadyExists)).To(BeTrue())
	})

	It("fails with NotFound when getting an unknown id", func() {
		s := newTestStore()
		_, err := s.Get("nope")
		Expect(errors.Is(err, subscription.ErrNotFound)).To(BeTrue())
	})

	It("lists only active identifiers", func() {
		s := newTestStore()
		_, err := s.Create("sub-1", sampleDetails)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Create("sub-2", sampleDetails)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Deactivate("sub-2")).To(Succeed())

		ids, err := s.ListIdentifiers()
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(Equal([]string{"sub-1"}))
	})

	It("deactivation is idempotent", func() {
		s := newTestStore()
		_, err := s.Create("sub-1", sampleDetails)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Deactivate("sub-1")).To(Succeed())
		Expect(s.Deactivate("sub-1")).To(Succeed())

		r, err := s.Get("sub-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Active).To(BeFalse())
	})

	It("fails deactivation of an unknown id with NotFound", func() {
		s := newTestStore()
		err := s.Deactivate("nope")
		Expect(errors.Is(err, subscription.ErrNotFound)).To(BeTrue())
	})

	It("preserves a supplied credential blob instead of generating one", func() {
		s := newTestStore()
		details := sampleDetails
		details.OldSecrets = "preserved-secret"

		r, err := s.Create("sub-1", details)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.OldSecrets).To(Equal("preserved-secret"))
	})

	It("generates a credential blob when none is supplied", func() {
		s := newTestStore()
		r, err := s.Create("sub-1", sampleDetails)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.OldSecrets).NotTo(BeEmpty())
	})

	It("fails with Exhausted once the port space runs out", func() {
		s := newTestStore()

		// countRecords only counts *.json files in the root, so prefilling
		// with placeholder files reaches the same allocation state as
		// (65535-10000)/2+1 real records without paying for that many
		// password generations and validations.
		prefill := (lastPort-firstPort)/2 + 1
		for i := 0; i < prefill; i++ {
			path := filepath.Join(s.root, fmt.Sprintf("prefill-%d.json", i))
			Expect(os.WriteFile(path, []byte("{}"), 0o644)).To(Succeed())
		}

		_, err := s.Create("sub-overflow", sampleDetails)
		Expect(errors.Is(err, subscription.ErrExhausted)).To(BeTrue())
	})

	It("persists records visible to a second Store opened over the same directory", func() {
		dir := GinkgoT().TempDir()
		s1, err := New(dir, logr.Discard(), nil)
		Expect(err).NotTo(HaveOccurred())

		created, err := s1.Create("sub-1", sampleDetails)
		Expect(err).NotTo(HaveOccurred())

		s2, err := New(dir, logr.Discard(), nil)
		Expect(err).NotTo(HaveOccurred())

		got, err := s2.Get("sub-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(created))
	})
})
