package cache

import (
	"sync"
	"testing"
)

// fakeItem is a Purgeable test double.
type fakeItem struct {
	name   string
	size   int
	locked bool
	purged bool
}

func (f *fakeItem) Size() int { return f.size }

func (f *fakeItem) TryPurge() bool {
	if f.locked || f.purged {
		return false
	}
	f.purged = true
	return true
}

func TestNewPool(t *testing.T) {
	p := NewPool[*fakeItem](100)
	if p == nil {
		t.Fatal("NewPool returned nil")
	}
	s := p.Stats()
	if s.Budget != 100 {
		t.Errorf("Budget = %d, want 100", s.Budget)
	}
	if s.Len != 0 || s.UsedBytes != 0 {
		t.Errorf("new pool not empty: %+v", s)
	}

	if got := NewPool[*fakeItem](-5).Stats().Budget; got != 0 {
		t.Errorf("negative budget clamped to %d, want 0", got)
	}
}

func TestPoolAddWithinBudget(t *testing.T) {
	p := NewPool[*fakeItem](100)
	a := &fakeItem{name: "a", size: 40}
	b := &fakeItem{name: "b", size: 60}

	p.Add(a)
	p.Add(b)

	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
	if a.purged || b.purged {
		t.Error("items purged while pool is within budget")
	}
	if got := p.Stats().UsedBytes; got != 100 {
		t.Errorf("UsedBytes = %d, want 100", got)
	}
}

func TestPoolAddTwiceRefreshes(t *testing.T) {
	p := NewPool[*fakeItem](0)
	a := &fakeItem{size: 10}
	p.Add(a)
	p.Add(a)

	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
	if got := p.Stats().UsedBytes; got != 10 {
		t.Errorf("UsedBytes = %d, want 10", got)
	}
}

func TestPoolPurgesOldestFirst(t *testing.T) {
	p := NewPool[*fakeItem](100)
	a := &fakeItem{name: "a", size: 50}
	b := &fakeItem{name: "b", size: 50}
	c := &fakeItem{name: "c", size: 50}

	p.Add(a)
	p.Add(b)
	p.Add(c) // over budget: a is oldest

	if !a.purged {
		t.Error("oldest item a should be purged")
	}
	if b.purged || c.purged {
		t.Error("b and c should survive")
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}

func TestPoolTouchChangesVictim(t *testing.T) {
	p := NewPool[*fakeItem](100)
	a := &fakeItem{name: "a", size: 50}
	b := &fakeItem{name: "b", size: 50}
	c := &fakeItem{name: "c", size: 50}

	p.Add(a)
	p.Add(b)
	if !p.Touch(a) {
		t.Fatal("Touch(a) = false, want true")
	}
	p.Add(c) // b is now oldest

	if a.purged {
		t.Error("touched item a should survive")
	}
	if !b.purged {
		t.Error("b should be purged")
	}

	if p.Touch(&fakeItem{}) {
		t.Error("Touch of untracked item should return false")
	}
}

func TestPoolSkipsLocked(t *testing.T) {
	p := NewPool[*fakeItem](100)
	a := &fakeItem{name: "a", size: 50, locked: true}
	b := &fakeItem{name: "b", size: 50}
	c := &fakeItem{name: "c", size: 50}

	p.Add(a)
	p.Add(b)
	p.Add(c)

	if a.purged {
		t.Error("locked item must never be purged")
	}
	if !b.purged {
		t.Error("oldest unlocked item b should be purged")
	}
	s := p.Stats()
	if s.Skipped == 0 {
		t.Error("Skipped should count the refused purge")
	}
	if s.Purged != 1 {
		t.Errorf("Purged = %d, want 1", s.Purged)
	}
}

func TestPoolTrimAfterUnlock(t *testing.T) {
	p := NewPool[*fakeItem](50)
	a := &fakeItem{size: 50, locked: true}
	b := &fakeItem{size: 50, locked: true}
	p.Add(a)
	p.Add(b)

	if a.purged || b.purged {
		t.Fatal("locked items purged")
	}

	a.locked = false
	if n := p.Trim(); n != 1 {
		t.Errorf("Trim() = %d, want 1", n)
	}
	if !a.purged {
		t.Error("a should be purged after unlock + Trim")
	}
}

func TestPoolRemove(t *testing.T) {
	p := NewPool[*fakeItem](0)
	a := &fakeItem{size: 10}
	p.Add(a)

	if !p.Remove(a) {
		t.Error("Remove(a) = false, want true")
	}
	if p.Remove(a) {
		t.Error("second Remove(a) = true, want false")
	}
	if a.purged {
		t.Error("Remove must not purge")
	}
	if s := p.Stats(); s.UsedBytes != 0 || s.Len != 0 {
		t.Errorf("Stats() after Remove = %+v, want empty", s)
	}
}

func TestPoolPurgeAll(t *testing.T) {
	p := NewPool[*fakeItem](0)
	items := []*fakeItem{{size: 1}, {size: 2, locked: true}, {size: 3}}
	for _, it := range items {
		p.Add(it)
	}

	if n := p.PurgeAll(); n != 2 {
		t.Errorf("PurgeAll() = %d, want 2", n)
	}
	if items[1].purged {
		t.Error("locked item purged by PurgeAll")
	}
	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
}

func TestPoolUnlimitedNeverTrims(t *testing.T) {
	p := NewPool[*fakeItem](0)
	for range 100 {
		p.Add(&fakeItem{size: 1 << 20})
	}
	if p.Len() != 100 {
		t.Errorf("Len() = %d, want 100", p.Len())
	}
	if n := p.Trim(); n != 0 {
		t.Errorf("Trim() on unlimited pool = %d, want 0", n)
	}
}

// lockedItem is a Purgeable that synchronizes its own state.
type lockedItem struct {
	mu     sync.Mutex
	purged bool
}

func (l *lockedItem) Size() int { return 8 }

func (l *lockedItem) TryPurge() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.purged {
		return false
	}
	l.purged = true
	return true
}

func TestPoolConcurrentAccess(t *testing.T) {
	p := NewPool[*lockedItem](64)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				it := &lockedItem{}
				p.Add(it)
				p.Touch(it)
				p.Trim()
				p.Remove(it)
			}
		}()
	}
	wg.Wait()

	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
}

func BenchmarkPoolAddRemove(b *testing.B) {
	p := NewPool[*fakeItem](1 << 20)
	it := &fakeItem{size: 64}
	b.ReportAllocs()
	for b.Loop() {
		p.Add(it)
		p.Remove(it)
	}
}
