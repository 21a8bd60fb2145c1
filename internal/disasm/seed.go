package disasm

// Seeder collects subroutine entry points: the first instruction, then
// every call target on first sight.
type Seeder struct {
	seen  map[uint64]bool
	seeds []uint64
}

// NewSeeder returns an empty seeder.
func NewSeeder() *Seeder {
	return &Seeder{seen: make(map[uint64]bool)}
}

// Add seeds addr unless it already is an entry. Returns true if it was new.
func (s *Seeder) Add(addr uint64) bool {
	if s.seen[addr] {
		return false
	}
	s.seen[addr] = true
	s.seeds = append(s.seeds, addr)
	return true
}

// Seeds returns entry addresses in discovery order.
func (s *Seeder) Seeds() []uint64 {
	return s.seeds
}
