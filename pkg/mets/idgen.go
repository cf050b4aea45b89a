package mets

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// IDGenerator hands out identifiers of the form <prefix>_<n>.
type IDGenerator struct {
	sync.Mutex
	prefix  string
	counter int
}

func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Prefix() string {
	return g.prefix
}

// Next returns the next unused identifier.
func (g *IDGenerator) Next() string {
	g.Lock()
	defer g.Unlock()
	g.counter++
	return fmt.Sprintf("%s_%d", g.prefix, g.counter)
}

// Register raises the counter floor so that id is never generated again.
// Identifiers which do not follow <prefix>_<int> are ignored.
func (g *IDGenerator) Register(id string) {
	pos := strings.LastIndex(id, "_")
	if pos < 0 || id[:pos] != g.prefix {
		return
	}
	n, err := strconv.Atoi(id[pos+1:])
	if err != nil {
		return
	}
	g.Lock()
	defer g.Unlock()
	if n > g.counter {
		g.counter = n
	}
}

func (g *IDGenerator) Count() int {
	g.Lock()
	defer g.Unlock()
	return g.counter
}

func (g *IDGenerator) Clear() {
	g.Lock()
	defer g.Unlock()
	g.counter = 0
}

// IDSpace holds one generator per section category.
type IDSpace struct {
	sync.Mutex
	generators map[string]*IDGenerator
}

func NewIDSpace() *IDSpace {
	s := &IDSpace{generators: map[string]*IDGenerator{}}
	for _, prefix := range []string{
		string(CategoryDMDSec),
		string(CategoryTechMD),
		string(CategoryRightsMD),
		string(CategorySourceMD),
		string(CategoryDigiprovMD),
		amdSecPrefix,
	} {
		s.generators[prefix] = NewIDGenerator(prefix)
	}
	return s
}

// Generator returns the generator for prefix, creating it on first use.
func (s *IDSpace) Generator(prefix string) *IDGenerator {
	s.Lock()
	defer s.Unlock()
	g, ok := s.generators[prefix]
	if !ok {
		g = NewIDGenerator(prefix)
		s.generators[prefix] = g
	}
	return g
}

func (s *IDSpace) Next(prefix string) string {
	return s.Generator(prefix).Next()
}

// Register routes id to the generator named by its prefix.
func (s *IDSpace) Register(id string) {
	pos := strings.LastIndex(id, "_")
	if pos < 0 {
		return
	}
	s.Lock()
	g, ok := s.generators[id[:pos]]
	s.Unlock()
	if ok {
		g.Register(id)
	}
}
