package component

import (
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Symbol is a unique provide/inject key that cannot collide with string keys.
type Symbol struct {
	id   uint64
	desc string
}

var symbolSeq atomic.Uint64

// NewSymbol returns a symbol distinct from every other symbol, including ones
// with the same description.
func NewSymbol(desc string) Symbol {
	n := symbolSeq.Add(1)
	return Symbol{id: xxhash.Sum64String(desc + "\x00" + strconv.FormatUint(n, 10)), desc: desc}
}

// SymbolFor returns the shared symbol for desc: equal descriptions give equal
// symbols.
func SymbolFor(desc string) Symbol {
	return Symbol{id: xxhash.Sum64String(desc), desc: desc}
}

// ID returns the hashed identity.
func (s Symbol) ID() uint64 {
	return s.id
}

func (s Symbol) String() string {
	return "Symbol(" + s.desc + ")"
}
