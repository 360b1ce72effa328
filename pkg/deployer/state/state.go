package state

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrAlreadySet = errors.New("state entry already set")
	ErrMissing    = errors.New("state entry missing")
)

const codeKeyPrefix = "code:"

// CodeKey is the state key recorded once the code for kind has been stored.
func CodeKey(kind ContractKind) string {
	return codeKeyPrefix + string(kind)
}

// State accumulates everything a deployment run learns from the chain: the
// code registry, the address of every instantiated contract and completion
// marks for stages that only have side effects. Entries are written once and
// never removed. State is safe for concurrent use.
type State struct {
	mtx       sync.RWMutex
	codeIDs   map[ContractKind]uint64
	addresses map[string]string
	marks     map[string]struct{}
}

func NewState() *State {
	return &State{
		codeIDs:   make(map[ContractKind]uint64),
		addresses: make(map[string]string),
		marks:     make(map[string]struct{}),
	}
}

func (s *State) SetCodeID(kind ContractKind, id uint64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.codeIDs[kind]; ok {
		return fmt.Errorf("%w: code id for %s", ErrAlreadySet, kind)
	}
	s.codeIDs[kind] = id
	return nil
}

func (s *State) CodeID(kind ContractKind) (uint64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	id, ok := s.codeIDs[kind]
	if !ok {
		return 0, fmt.Errorf("%w: code id for %s", ErrMissing, kind)
	}
	return id, nil
}

func (s *State) SetAddress(name string, addr string) error {
	if addr == "" {
		return fmt.Errorf("empty address for %s", name)
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.addresses[name]; ok {
		return fmt.Errorf("%w: address for %s", ErrAlreadySet, name)
	}
	s.addresses[name] = addr
	return nil
}

func (s *State) Address(name string) (string, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	addr, ok := s.addresses[name]
	if !ok {
		return "", fmt.Errorf("%w: address for %s", ErrMissing, name)
	}
	return addr, nil
}

// Addresses resolves several names at once, failing on the first missing one.
func (s *State) Addresses(names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, name := range names {
		addr, err := s.Address(name)
		if err != nil {
			return nil, err
		}
		out[i] = addr
	}
	return out, nil
}

func (s *State) Mark(key string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.marks[key]; ok {
		return fmt.Errorf("%w: mark %s", ErrAlreadySet, key)
	}
	s.marks[key] = struct{}{}
	return nil
}

// Has reports whether key is present, whether it names a stored code
// ("code:<kind>"), an address or a completion mark.
func (s *State) Has(key string) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if kind, ok := strings.CutPrefix(key, codeKeyPrefix); ok {
		_, ok := s.codeIDs[ContractKind(kind)]
		return ok
	}
	if _, ok := s.addresses[key]; ok {
		return true
	}
	_, ok := s.marks[key]
	return ok
}

// Output is the final address report: a copy of every logical name to
// address mapping written during the run.
func (s *State) Output() map[string]string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out := make(map[string]string, len(s.addresses))
	for k, v := range s.addresses {
		out[k] = v
	}
	return out
}

func (s *State) CodeIDs() map[ContractKind]uint64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out := make(map[ContractKind]uint64, len(s.codeIDs))
	for k, v := range s.codeIDs {
		out[k] = v
	}
	return out
}

func (s *State) Marks() []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out := make([]string, 0, len(s.marks))
	for k := range s.marks {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
