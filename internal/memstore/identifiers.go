package memstore

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mff-uk/dataspecer-sub018/internal/executor"
)

// GeneratorFactory builds the identifier generator of a store once its base
// IRI is known. taken reports IRIs the store already uses.
type GeneratorFactory func(baseIRI string, taken func(iri string) bool) executor.IdentifierGenerator

// CounterGenerator mints baseIri/kind/counter identifiers. The counter is
// shared by all kinds and skips values whose IRI is taken, so an imported
// store never hands out an identifier it already holds.
type CounterGenerator struct {
	prefix string
	clock  *Clock
	taken  func(string) bool
}

// NewCounterGenerator is a GeneratorFactory for the counter scheme.
func NewCounterGenerator(baseIRI string, taken func(string) bool) executor.IdentifierGenerator {
	return &CounterGenerator{
		prefix: strings.TrimSuffix(baseIRI, "/") + "/",
		clock:  NewClock(),
		taken:  taken,
	}
}

// NewIRI implements executor.IdentifierGenerator.
func (g *CounterGenerator) NewIRI(kind string) string {
	for {
		iri := g.prefix + kind + "/" + strconv.FormatInt(g.clock.Next(), 10)
		if g.taken == nil || !g.taken(iri) {
			return iri
		}
	}
}

// resumeAfter advances the counter past iri when iri is one of this
// generator's identifiers.
func (g *CounterGenerator) resumeAfter(iri string) {
	rest, ok := strings.CutPrefix(iri, g.prefix)
	if !ok {
		return
	}
	_, num, ok := strings.Cut(rest, "/")
	if !ok {
		return
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n <= g.clock.Current() {
		return
	}
	g.clock = NewClockAt(n)
}

// checkpoint captures the state of gen and returns a function restoring it.
// Identifiers minted by a refused operation are handed out again, so a log
// replays to the same identifiers whether or not refusals are repeated.
func checkpoint(gen executor.IdentifierGenerator) (rewind func()) {
	cg, ok := gen.(*CounterGenerator)
	if !ok {
		return func() {}
	}
	at := cg.clock.Current()
	return func() { cg.clock = NewClockAt(at) }
}

// UUIDGenerator mints baseIri/kind/<uuidv7> identifiers. UUIDv7 values sort
// by creation time, which keeps generated IRIs roughly in creation order.
type UUIDGenerator struct {
	prefix string
	taken  func(string) bool
}

// NewUUIDGenerator is a GeneratorFactory for the uuid scheme.
func NewUUIDGenerator(baseIRI string, taken func(string) bool) executor.IdentifierGenerator {
	return &UUIDGenerator{
		prefix: strings.TrimSuffix(baseIRI, "/") + "/",
		taken:  taken,
	}
}

// NewIRI implements executor.IdentifierGenerator.
func (g *UUIDGenerator) NewIRI(kind string) string {
	for {
		iri := g.prefix + kind + "/" + uuid.Must(uuid.NewV7()).String()
		if g.taken == nil || !g.taken(iri) {
			return iri
		}
	}
}

// GeneratorForScheme returns the factory for a configured scheme name
// ("counter" or "uuid"). Unknown names fall back to counter.
func GeneratorForScheme(scheme string) GeneratorFactory {
	if scheme == "uuid" {
		return NewUUIDGenerator
	}
	return NewCounterGenerator
}
