package subscription

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Record construction", func() {
	validDetails := PartialDetails{
		CustomerID:    "cust-1",
		ProductID:     "prod-1",
		CustomerEmail: "customer@example.com",
		BucketName:    "bucket-1",
	}

	It("builds an active record from valid details and a port pair", func() {
		r, err := New("sub-1", validDetails, 10000, 10001)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Active).To(BeTrue())
		Expect(r.ID).To(Equal("sub-1"))
		in, st := r.PortPair()
		Expect(in).To(Equal(10000))
		Expect(st).To(Equal(10001))
	})

	It("rejects an empty id", func() {
		_, err := New("", validDetails, 10000, 10001)
		Expect(errors.Is(err, ErrInvalidDetails)).To(BeTrue())
	})

	It("rejects a malformed email", func() {
		bad := validDetails
		bad.CustomerEmail = "not-an-email"
		_, err := New("sub-2", bad, 10000, 10001)
		Expect(errors.Is(err, ErrInvalidDetails)).To(BeTrue())
	})

	It("rejects a missing required field", func() {
		bad := validDetails
		bad.BucketName = ""
		_, err := New("sub-3", bad, 10000, 10001)
		Expect(errors.Is(err, ErrInvalidDetails)).To(BeTrue())
	})

	It("rejects a storage port that isn't introducer+1", func() {
		_, err := New("sub-4", validDetails, 10000, 10005)
		Expect(errors.Is(err, ErrInvalidDetails)).To(BeTrue())
	})

	It("rejects an out-of-range port", func() {
		_, err := New("sub-5", validDetails, 100, 101)
		Expect(errors.Is(err, ErrInvalidDetails)).To(BeTrue())
	})

	It("deactivates without mutating the receiver", func() {
		r, err := New("sub-6", validDetails, 10000, 10001)
		Expect(err).NotTo(HaveOccurred())

		d := r.Deactivated()
		Expect(d.Active).To(BeFalse())
		Expect(r.Active).To(BeTrue())
	})
})
