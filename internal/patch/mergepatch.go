package patch

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	corev1 "k8s.io/api/core/v1"
)

// MergePatch computes the JSON merge patch transforming old into want,
// for use against the Orchestrator Adapter's Apply operation. Grounded
// on k8s.apply(service) in subscription_converger.py, generalized from
// "replace the whole object" into a proper merge patch using
// github.com/evanphx/json-patch (a direct dependency of
// operator-framework/operator-lifecycle-manager in the retrieval pack).
func MergePatch(old, want *corev1.Service) ([]byte, error) {
	oldJSON, err := json.Marshal(old)
	if err != nil {
		return nil, fmt.Errorf("patch: marshaling current service: %w", err)
	}
	wantJSON, err := json.Marshal(want)
	if err != nil {
		return nil, fmt.Errorf("patch: marshaling desired service: %w", err)
	}

	merge, err := jsonpatch.CreateMergePatch(oldJSON, wantJSON)
	if err != nil {
		return nil, fmt.Errorf("patch: computing merge patch: %w", err)
	}
	return merge, nil
}
