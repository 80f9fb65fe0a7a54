package subscription

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Envelope round-trip", func() {
	It("marshals and unmarshals a record unchanged", func() {
		r, err := New("sub-1", PartialDetails{
			CustomerID:    "cust-1",
			ProductID:     "prod-1",
			CustomerEmail: "customer@example.com",
			BucketName:    "bucket-1",
		}, 10000, 10001)
		Expect(err).NotTo(HaveOccurred())

		buf, err := Marshal(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf).To(ContainSubstring(`"version":1`))

		got, err := Unmarshal(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(r))
	})

	It("rejects an unknown version loudly instead of coercing", func() {
		_, err := Unmarshal([]byte(`{"version": 99, "details": {}}`))
		Expect(errors.Is(err, ErrSerialization)).To(BeTrue())
	})

	It("rejects malformed envelope JSON", func() {
		_, err := Unmarshal([]byte(`not json`))
		Expect(errors.Is(err, ErrSerialization)).To(BeTrue())
	})
})
