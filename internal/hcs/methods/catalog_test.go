package methods

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/assay.report/internal/hcs"
)

func TestNewCatalogDefaults(t *testing.T) {
	c := NewCatalog(DefaultConfig())

	wantDefaults := map[int]string{
		1: "log2.nctrl",
		2: "mad.nctrl",
		3: "collapse.median",
		4: "none",
		5: "hit.band",
		6: "fit.summary",
	}
	for level, want := range wantDefaults {
		name, ok := c.Default(level)
		require.True(t, ok, "level %d has no default", level)
		assert.Equal(t, want, name, "level %d", level)
	}
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog(DefaultConfig())

	tr, ok := c.Lookup(1, "log2.nctrl")
	require.True(t, ok)
	assert.Equal(t, 1, tr.Level())

	_, ok = c.Lookup(1, "mad.nctrl")
	assert.False(t, ok, "level-2 method must not resolve at level 1")

	_, ok = c.Lookup(2, "nope")
	assert.False(t, ok)
}

func TestCatalogMethodNames(t *testing.T) {
	c := NewCatalog(DefaultConfig())
	assert.Equal(t, []string{"log2.nctrl", "none", "pct.nctrl"}, c.MethodNames(1))
	assert.Equal(t, []string{"mad.global", "mad.nctrl"}, c.MethodNames(2))
}

type stubTransform struct {
	name  string
	level int
}

func (s *stubTransform) Name() string { return s.name }
func (s *stubTransform) Level() int   { return s.level }
func (s *stubTransform) Apply(ctx context.Context, in Input) (Output, error) {
	return Output{}, nil
}

func TestCatalogRegisterRejectsDuplicates(t *testing.T) {
	c := NewCatalog(DefaultConfig())

	err := c.Register(&stubTransform{name: "log2.nctrl", level: 1}, false)
	assert.Error(t, err)

	err = c.Register(&stubTransform{name: "custom", level: 0}, false)
	assert.Error(t, err)

	err = c.Register(&stubTransform{name: "custom", level: 4}, false)
	assert.NoError(t, err)
}

type fakeAssignmentStore struct {
	endpoints   []hcs.Endpoint
	assignments map[[2]int64]string
}

func newFakeAssignmentStore(endpoints ...hcs.Endpoint) *fakeAssignmentStore {
	return &fakeAssignmentStore{
		endpoints:   endpoints,
		assignments: map[[2]int64]string{},
	}
}

func (s *fakeAssignmentStore) EndpointsByStudy(asid int64) ([]hcs.Endpoint, error) {
	return s.endpoints, nil
}

func (s *fakeAssignmentStore) MethodFor(aeid int64, level int) (string, bool, error) {
	m, ok := s.assignments[[2]int64{aeid, int64(level)}]
	return m, ok, nil
}

func (s *fakeAssignmentStore) UpsertMethodAssignment(aeid int64, level int, method string) error {
	s.assignments[[2]int64{aeid, int64(level)}] = method
	return nil
}

func TestAssignValidates(t *testing.T) {
	c := NewCatalog(DefaultConfig())
	store := newFakeAssignmentStore()

	err := c.Assign(store, 1, 1, "pct.nctrl")
	require.NoError(t, err)
	assert.Equal(t, "pct.nctrl", store.assignments[[2]int64{1, 1}])

	err = c.Assign(store, 1, 2, "no.such.method")
	assert.ErrorIs(t, err, hcs.ErrUnknownMethod)
}

func TestAssignDefaultsFillsGapsOnly(t *testing.T) {
	c := NewCatalog(DefaultConfig())
	store := newFakeAssignmentStore(hcs.Endpoint{AEID: 1, Name: "cytotox_cellmask"})

	// An explicit assignment survives the defaults pass.
	require.NoError(t, c.Assign(store, 1, 1, "pct.nctrl"))
	require.NoError(t, c.AssignDefaults(store, 1))

	assert.Equal(t, "pct.nctrl", store.assignments[[2]int64{1, 1}])
	assert.Equal(t, "mad.nctrl", store.assignments[[2]int64{1, 2}])
	assert.Equal(t, "collapse.median", store.assignments[[2]int64{1, 3}])
	assert.Equal(t, "none", store.assignments[[2]int64{1, 4}])
	assert.Equal(t, "hit.band", store.assignments[[2]int64{1, 5}])
	assert.Equal(t, "fit.summary", store.assignments[[2]int64{1, 6}])
}
