// Package viewheat scores how often viewports land on each H3 cell. Scores
// decay exponentially so cells viewed long ago cool down.
package viewheat

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const numShards = 64

// Cell is one scored cell.
type Cell struct {
	Cell  string  `json:"cell"`
	Score float64 `json:"score"`
}

type Tracker struct {
	HalfLife time.Duration

	now func() time.Time

	shards [numShards]shard
}

type shard struct {
	mu sync.RWMutex
	m  map[string]*counter
}

type counter struct {
	score float64
	last  time.Time
}

func New(halfLife time.Duration) *Tracker {
	if halfLife <= 0 {
		halfLife = 5 * time.Minute
	}
	t := &Tracker{HalfLife: halfLife, now: time.Now}
	for i := range t.shards {
		t.shards[i].m = make(map[string]*counter)
	}
	return t
}

// Record counts one viewport landing on cell.
func (t *Tracker) Record(cell string) {
	if cell == "" {
		return
	}
	s := t.pick(cell)
	n := t.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.m[cell]
	if c == nil {
		s.m[cell] = &counter{score: 1, last: n}
		return
	}
	c.score = decay(c.score, n.Sub(c.last).Seconds(), t.HalfLife.Seconds()) + 1
	c.last = n
}

func (t *Tracker) Score(cell string) float64 {
	if cell == "" {
		return 0
	}
	s := t.pick(cell)

	s.mu.RLock()
	c := s.m[cell]
	if c == nil {
		s.mu.RUnlock()
		return 0
	}
	score, last := c.score, c.last
	s.mu.RUnlock()

	return decay(score, t.now().Sub(last).Seconds(), t.HalfLife.Seconds())
}

// Top returns the n hottest cells, hottest first; ties order by cell id.
// n <= 0 returns every cell.
func (t *Tracker) Top(n int) []Cell {
	now := t.now()
	hl := t.HalfLife.Seconds()

	var out []Cell
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		for cell, c := range s.m {
			out = append(out, Cell{Cell: cell, Score: decay(c.score, now.Sub(c.last).Seconds(), hl)})
		}
		s.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Cell < out[j].Cell
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (t *Tracker) Reset(cells ...string) {
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		s := t.pick(cell)
		s.mu.Lock()
		delete(s.m, cell)
		s.mu.Unlock()
	}
}

func (t *Tracker) Size() int {
	total := 0
	for i := range t.shards {
		t.shards[i].mu.RLock()
		total += len(t.shards[i].m)
		t.shards[i].mu.RUnlock()
	}
	return total
}

// score * e^(-ln2/halfLife * dt)
func decay(score, dt, halfLife float64) float64 {
	if score == 0 || dt <= 0 || halfLife <= 0 {
		return score
	}
	return score * math.Exp(-math.Ln2/halfLife*dt)
}

func (t *Tracker) pick(cell string) *shard {
	h := xxhash.Sum64String(cell)
	return &t.shards[h&(numShards-1)]
}
