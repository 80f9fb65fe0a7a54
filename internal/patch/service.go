// Package patch implements the Service-Object Patch Algebra (spec.md
// §4.E): pure functions over the shared front-end Service descriptor.
//
// Grounded on add_subscription_to_service/remove_subscription_from_service/
// get_configured_subscriptions in
// _examples/original_source/lae_automation/subscription_converger.py,
// translated from Python's `name[2:]`/`startswith` string slicing into
// strings.TrimPrefix plus a stringset.Data, and from pykube's untyped
// Service dict into k8s.io/api/core/v1's typed Service.
package patch

import (
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/leastauthority/gridconverge/pkg/stringset"
)

const (
	introducerPrefix = "i-"
	storagePrefix    = "s-"
)

// Add appends the introducer and storage port entries for subscription
// id, named "i-<id>" and "s-<id>" respectively. It is idempotent on
// name: re-adding an id that is already fully present is a no-op. Add
// never mutates svc; it returns a new Service with the change applied.
func Add(svc *corev1.Service, id string, introducerPort, storagePort int32) *corev1.Service {
	out := svc.DeepCopy()
	out.Spec.Ports = upsertPort(out.Spec.Ports, introducerPrefix+id, introducerPort)
	out.Spec.Ports = upsertPort(out.Spec.Ports, storagePrefix+id, storagePort)
	return out
}

// Remove deletes both the introducer and storage port entries for
// subscription id. It is idempotent: removing an id with no entries is a
// no-op. Remove never mutates svc.
func Remove(svc *corev1.Service, id string) *corev1.Service {
	out := svc.DeepCopy()
	out.Spec.Ports = deletePort(out.Spec.Ports, introducerPrefix+id)
	out.Spec.Ports = deletePort(out.Spec.Ports, storagePrefix+id)
	return out
}

// AddMany and RemoveMany apply Add/Remove for every id in ids, the
// reduce-over-set pattern used by the Converger's apply_service_changes
// equivalent (spec.md §4.H step 4).
func AddMany(svc *corev1.Service, ids *stringset.Data, ports func(id string) (introducer, storage int32)) *corev1.Service {
	out := svc
	for _, id := range ids.ToSortedList() {
		in, st := ports(id)
		out = Add(out, id, in, st)
	}
	return out
}

func RemoveMany(svc *corev1.Service, ids *stringset.Data) *corev1.Service {
	out := svc
	for _, id := range ids.ToSortedList() {
		out = Remove(out, id)
	}
	return out
}

// ConfiguredSubscriptions returns the set of ids for which both the
// "i-<id>" and "s-<id>" port entries are present. An id with only one
// side present is a partial configuration, left for the next apply to
// repair, and is not reported here.
func ConfiguredSubscriptions(svc *corev1.Service) *stringset.Data {
	introducers := stringset.New()
	storages := stringset.New()

	for _, port := range svc.Spec.Ports {
		switch {
		case strings.HasPrefix(port.Name, introducerPrefix):
			introducers.Put(strings.TrimPrefix(port.Name, introducerPrefix))
		case strings.HasPrefix(port.Name, storagePrefix):
			storages.Put(strings.TrimPrefix(port.Name, storagePrefix))
		}
	}

	configured := stringset.New()
	for _, id := range introducers.ToList() {
		if storages.Has(id) {
			configured.Put(id)
		}
	}
	return configured
}

func upsertPort(ports []corev1.ServicePort, name string, port int32) []corev1.ServicePort {
	for i, p := range ports {
		if p.Name == name {
			ports[i].Port = port
			return ports
		}
	}
	return append(ports, corev1.ServicePort{
		Name:       name,
		Port:       port,
		TargetPort: intstr.FromInt(int(port)),
		Protocol:   corev1.ProtocolTCP,
	})
}

func deletePort(ports []corev1.ServicePort, name string) []corev1.ServicePort {
	out := ports[:0:0]
	for _, p := range ports {
		if p.Name != name {
			out = append(out, p)
		}
	}
	return out
}
