package manager

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	"github.com/leastauthority/gridconverge/internal/subscription"
)

// fakeStore is a minimal in-memory Store double for handler-level tests,
// isolated from internal/store's filesystem semantics.
type fakeStore struct {
	records map[string]subscription.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]subscription.Record{}}
}

func (f *fakeStore) ListIdentifiers() ([]string, error) {
	var ids []string
	for id, r := range f.records {
		if r.Active {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStore) Get(id string) (subscription.Record, error) {
	r, ok := f.records[id]
	if !ok {
		return subscription.Record{}, subscription.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) Create(id string, details subscription.PartialDetails) (subscription.Record, error) {
	if _, ok := f.records[id]; ok {
		return subscription.Record{}, subscription.ErrAlreadyExists
	}
	r, err := subscription.New(id, details, 10000, 10001)
	if err != nil {
		return subscription.Record{}, err
	}
	f.records[id] = r
	return r, nil
}

func (f *fakeStore) Deactivate(id string) error {
	r, ok := f.records[id]
	if !ok {
		return subscription.ErrNotFound
	}
	f.records[id] = r.Deactivated()
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeStore) {
	t.Helper()
	s := newFakeStore()
	return NewHandler(s, t.TempDir(), logr.Discard()), s
}

const validBody = `{"customer_id":"cust-1","product_id":"prod-1","email":"customer@example.com","bucket_name":"bucket-1"}`

func TestCreate_Success(t *testing.T) {
	h, _ := newTestHandler(t)

	r := httptest.NewRequest(http.MethodPut, "/v1/subscriptions/sub-1", strings.NewReader(validBody))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusCreated, w.Body.String())
	}
}

func TestCreate_Conflict(t *testing.T) {
	h, store := newTestHandler(t)
	store.records["sub-1"], _ = subscription.New("sub-1", subscription.PartialDetails{
		CustomerID: "c", ProductID: "p", CustomerEmail: "a@b.com", BucketName: "bkt",
	}, 10000, 10001)

	r := httptest.NewRequest(http.MethodPut, "/v1/subscriptions/sub-1", strings.NewReader(validBody))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCreate_MalformedBody(t *testing.T) {
	h, _ := newTestHandler(t)

	r := httptest.NewRequest(http.MethodPut, "/v1/subscriptions/sub-1", strings.NewReader("{bad"))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGet_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	r := httptest.NewRequest(http.MethodGet, "/v1/subscriptions/nope", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGet_Success(t *testing.T) {
	h, store := newTestHandler(t)
	store.records["sub-1"], _ = subscription.New("sub-1", subscription.PartialDetails{
		CustomerID: "c", ProductID: "p", CustomerEmail: "a@b.com", BucketName: "bkt",
	}, 10000, 10001)

	r := httptest.NewRequest(http.MethodGet, "/v1/subscriptions/sub-1", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestList_OnlyActive(t *testing.T) {
	h, store := newTestHandler(t)
	store.records["sub-1"], _ = subscription.New("sub-1", subscription.PartialDetails{
		CustomerID: "c", ProductID: "p", CustomerEmail: "a@b.com", BucketName: "bkt",
	}, 10000, 10001)
	inactive, _ := subscription.New("sub-2", subscription.PartialDetails{
		CustomerID: "c", ProductID: "p", CustomerEmail: "a@b.com", BucketName: "bkt",
	}, 10002, 10003)
	store.records["sub-2"] = inactive.Deactivated()

	r := httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if strings.Contains(w.Body.String(), "sub-2") {
		t.Fatalf("expected inactive subscription to be excluded, body = %s", w.Body.String())
	}
}

func TestDeactivate_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	r := httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/nope", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestReadyz_StatableStatePath(t *testing.T) {
	h, _ := newTestHandler(t)

	r := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestReadyz_MissingStatePath(t *testing.T) {
	s := newFakeStore()
	h := NewHandler(s, "/nonexistent/gridconverge-state", logr.Discard())

	r := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestDeactivate_Success(t *testing.T) {
	h, store := newTestHandler(t)
	store.records["sub-1"], _ = subscription.New("sub-1", subscription.PartialDetails{
		CustomerID: "c", ProductID: "p", CustomerEmail: "a@b.com", BucketName: "bkt",
	}, 10000, 10001)

	r := httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/sub-1", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}
