package patch

import (
	corev1 "k8s.io/api/core/v1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/leastauthority/gridconverge/pkg/stringset"
)

var _ = Describe("Service patch algebra", func() {
	It("adds both port entries for a subscription", func() {
		svc := &corev1.Service{}
		out := Add(svc, "sub-1", 10000, 10001)

		Expect(out.Spec.Ports).To(HaveLen(2))
		Expect(ConfiguredSubscriptions(out).ToSortedList()).To(Equal([]string{"sub-1"}))
	})

	It("is idempotent on name", func() {
		svc := Add(&corev1.Service{}, "sub-1", 10000, 10001)
		again := Add(svc, "sub-1", 10000, 10001)
		Expect(again.Spec.Ports).To(HaveLen(2))
	})

	It("does not mutate the input service", func() {
		svc := &corev1.Service{}
		_ = Add(svc, "sub-1", 10000, 10001)
		Expect(svc.Spec.Ports).To(BeEmpty())
	})

	It("removes both port entries for a subscription", func() {
		svc := Add(&corev1.Service{}, "sub-1", 10000, 10001)
		out := Remove(svc, "sub-1")
		Expect(out.Spec.Ports).To(BeEmpty())
	})

	It("is idempotent when removing an absent subscription", func() {
		svc := &corev1.Service{}
		out := Remove(svc, "sub-1")
		Expect(out.Spec.Ports).To(BeEmpty())
	})

	It("ignores a partially-configured subscription", func() {
		svc := &corev1.Service{
			Spec: corev1.ServiceSpec{
				Ports: []corev1.ServicePort{{Name: "i-sub-1", Port: 10000}},
			},
		}
		Expect(ConfiguredSubscriptions(svc).Len()).To(Equal(0))
	})

	It("applies AddMany/RemoveMany over a set of ids", func() {
		svc := &corev1.Service{}
		ports := map[string][2]int32{
			"sub-1": {10000, 10001},
			"sub-2": {10002, 10003},
		}

		out := AddMany(svc, stringset.From([]string{"sub-1", "sub-2"}), func(id string) (int32, int32) {
			p := ports[id]
			return p[0], p[1]
		})
		Expect(ConfiguredSubscriptions(out).ToSortedList()).To(Equal([]string{"sub-1", "sub-2"}))

		out = RemoveMany(out, stringset.From([]string{"sub-1"}))
		Expect(ConfiguredSubscriptions(out).ToSortedList()).To(Equal([]string{"sub-2"}))
	})
})
