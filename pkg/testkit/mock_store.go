package testkit

import (
	"github.com/stretchr/testify/mock"

	"github.com/shashiranjanraj/canteen/pkg/storage"
)

// StoreMock is a testify-backed storage.Store. Calls without an explicit
// expectation pass through to an in-memory store, so tests only stub the
// failures they care about:
//
//	st := testkit.NewStoreMock()
//	st.On("Put", "cart", mock.Anything).Return(errors.New("disk full")).Once()
type StoreMock struct {
	mock.Mock
	backing storage.Store
}

// NewStoreMock returns a StoreMock over an empty memory store.
func NewStoreMock() *StoreMock {
	return &StoreMock{backing: storage.NewMemory()}
}

// Backing exposes the underlying store, bypassing expectations.
func (m *StoreMock) Backing() storage.Store { return m.backing }

// hasExpectation reports whether a live expectation matches the call.
// Exhausted .Once()/.Times(n) expectations have Repeatability -1.
func (m *StoreMock) hasExpectation(method string, args ...interface{}) bool {
	for _, c := range m.ExpectedCalls {
		if c.Method != method || c.Repeatability < 0 {
			continue
		}
		if _, diff := c.Arguments.Diff(args); diff == 0 {
			return true
		}
	}
	return false
}

func (m *StoreMock) Get(key string) ([]byte, error) {
	if !m.hasExpectation("Get", key) {
		return m.backing.Get(key)
	}
	args := m.Called(key)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *StoreMock) Put(key string, value []byte) error {
	if !m.hasExpectation("Put", key, value) {
		return m.backing.Put(key, value)
	}
	args := m.Called(key, value)
	if err := args.Error(0); err != nil {
		return err
	}
	return m.backing.Put(key, value)
}

func (m *StoreMock) Delete(key string) error {
	if !m.hasExpectation("Delete", key) {
		return m.backing.Delete(key)
	}
	args := m.Called(key)
	if err := args.Error(0); err != nil {
		return err
	}
	return m.backing.Delete(key)
}

func (m *StoreMock) Exists(key string) bool { return m.backing.Exists(key) }

func (m *StoreMock) Close() error { return m.backing.Close() }
