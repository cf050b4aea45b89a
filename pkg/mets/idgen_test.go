package mets

import (
	"fmt"
	"sync"
	"testing"
)

func TestIDGenerator(t *testing.T) {
	g := NewIDGenerator("techMD")
	if id := g.Next(); id != "techMD_1" {
		t.Errorf("expected techMD_1, got %s", id)
	}
	g.Register("techMD_7")
	for _, expected := range []string{"techMD_8", "techMD_9"} {
		if id := g.Next(); id != expected {
			t.Errorf("expected %s, got %s", expected, id)
		}
	}
	// lower or foreign ids do not move the counter
	g.Register("techMD_3")
	g.Register("rightsMD_40")
	g.Register("techMD_x")
	g.Register("garbage")
	if id := g.Next(); id != "techMD_10" {
		t.Errorf("expected techMD_10, got %s", id)
	}
	g.Clear()
	if g.Count() != 0 {
		t.Errorf("expected cleared counter, got %d", g.Count())
	}
}

func TestIDSpaceIsolation(t *testing.T) {
	a := NewIDSpace()
	b := NewIDSpace()
	a.Register("dmdSec_5")
	if id := a.Next("dmdSec"); id != "dmdSec_6" {
		t.Errorf("expected dmdSec_6, got %s", id)
	}
	if id := b.Next("dmdSec"); id != "dmdSec_1" {
		t.Errorf("second space shares state: got %s", id)
	}
	if id := a.Next("amdSec"); id != "amdSec_1" {
		t.Errorf("expected amdSec_1, got %s", id)
	}
}

func TestIDSpaceConcurrent(t *testing.T) {
	s := NewIDSpace()
	var wg sync.WaitGroup
	ids := make([][]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ids[i] = append(ids[i], s.Next(fmt.Sprintf("custom%d", j%5)))
				s.Register(fmt.Sprintf("custom%d_%d", j%5, j))
			}
		}(i)
	}
	wg.Wait()
	seen := map[string]bool{}
	for _, list := range ids {
		for _, id := range list {
			if seen[id] {
				t.Errorf("duplicate id %s", id)
			}
			seen[id] = true
		}
	}
}
