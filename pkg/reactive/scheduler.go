package reactive

import (
	"cmp"
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// MaxUpdateCount is how many times a single watcher may be re-queued within
// one flush before the flush gives up on it.
const MaxUpdateCount = 100

// Scheduler batches watcher re-evaluation: notified watchers are deduplicated
// into a queue that is flushed once at the next tick in ascending id order.
type Scheduler struct {
	rs *ReactiveSystem

	queue    []*Watcher
	has      mapset.Set[uint64]
	circular map[uint64]int
	// Watchers that re-queued themselves while running, they go to the next flush
	deferred []*Watcher

	waiting  bool
	flushing bool
	index    int

	afterFlush []func(flushed []*Watcher)
}

func newScheduler(rs *ReactiveSystem) *Scheduler {
	return &Scheduler{
		rs:       rs,
		has:      mapset.NewThreadUnsafeSet[uint64](),
		circular: map[uint64]int{},
	}
}

// OnFlushed registers fn to receive the watchers that ran in each flush.
func (s *Scheduler) OnFlushed(fn func(flushed []*Watcher)) {
	s.afterFlush = append(s.afterFlush, fn)
}

// Pending returns the number of queued watchers.
func (s *Scheduler) Pending() int {
	return len(s.queue) + len(s.deferred)
}

// Flushing reports whether a flush is in progress.
func (s *Scheduler) Flushing() bool {
	return s.flushing
}

// Queue adds w to the flush queue unless it is already pending. During a flush
// the watcher is spliced in by id so it still runs in this pass, except when it
// is the watcher currently running, which is pushed to the next flush.
func (s *Scheduler) Queue(w *Watcher) {
	if s.has.Contains(w.id) {
		return
	}
	if s.flushing && s.index < len(s.queue) && s.queue[s.index] == w {
		if !slices.Contains(s.deferred, w) {
			s.deferred = append(s.deferred, w)
		}
		return
	}
	s.has.Add(w.id)
	if !s.flushing {
		s.queue = append(s.queue, w)
	} else {
		i := len(s.queue) - 1
		for i > s.index && s.queue[i].id > w.id {
			i--
		}
		s.queue = slices.Insert(s.queue, i+1, w)
	}
	s.schedule()
}

func (s *Scheduler) schedule() {
	if s.waiting {
		return
	}
	s.waiting = true
	if s.rs.syncFlush {
		s.Flush()
		return
	}
	s.rs.runSoon(s.Flush)
}

// Flush runs every queued watcher once, parents before children.
func (s *Scheduler) Flush() {
	if s.flushing {
		return
	}
	s.flushing = true

	slices.SortFunc(s.queue, func(a, b *Watcher) int {
		return cmp.Compare(a.id, b.id)
	})

	// queue may grow while running, do not cache the length
	var flushed []*Watcher
	ran := mapset.NewThreadUnsafeSet[uint64]()
	looping := false
	for s.index = 0; s.index < len(s.queue); s.index++ {
		w := s.queue[s.index]
		s.has.Remove(w.id)

		s.circular[w.id]++
		if s.circular[w.id] > MaxUpdateCount {
			msg := "You may have an infinite update loop"
			if w.opts.Expression != "" {
				msg = fmt.Sprintf("%s in watcher with expression %q", msg, w.opts.Expression)
			}
			s.rs.Warn(msg, w.opts.Owner)
			looping = true
			break
		}

		if w.opts.Before != nil && w.active {
			w.opts.Before()
		}
		w.Run()
		if ran.Add(w.id) {
			flushed = append(flushed, w)
		}
	}

	deferred := s.deferred
	// run counts survive into the next flush for watchers that re-queued
	// themselves, so a self-feeding watcher is still caught
	carry := map[uint64]int{}
	if looping {
		deferred = nil
	}
	for _, w := range deferred {
		carry[w.id] = s.circular[w.id]
	}
	s.reset()
	s.circular = carry

	for _, fn := range s.afterFlush {
		fn(flushed)
	}
	for _, w := range deferred {
		if w.active {
			s.Queue(w)
		}
	}
}

func (s *Scheduler) reset() {
	clear(s.queue)
	s.queue = s.queue[:0]
	s.deferred = nil
	s.index = 0
	s.has.Clear()
	s.circular = map[uint64]int{}
	s.waiting = false
	s.flushing = false
}

// remove drops w from the pending queue so a torn down watcher never runs.
func (s *Scheduler) remove(w *Watcher) {
	if i := slices.Index(s.deferred, w); i >= 0 {
		s.deferred = slices.Delete(s.deferred, i, i+1)
	}
	if !s.has.Contains(w.id) {
		return
	}
	s.has.Remove(w.id)
	i := slices.Index(s.queue, w)
	if i < 0 || (s.flushing && i <= s.index) {
		return
	}
	s.queue = slices.Delete(s.queue, i, i+1)
}
