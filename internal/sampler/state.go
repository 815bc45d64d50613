package sampler

import "github.com/dbsmedya/gobalance/internal/types"

// sampleState holds the per-class counters of one sampling run.
type sampleState struct {
	quota      types.ClassQuota
	counts     map[string]int
	incidental map[string]int
	unmet      int // quota classes still below target
}

func newSampleState(quota types.ClassQuota) *sampleState {
	st := &sampleState{
		quota:      quota,
		counts:     make(map[string]int, len(quota)),
		incidental: make(map[string]int),
	}
	for name, target := range quota {
		st.counts[name] = 0
		if target > 0 {
			st.unmet++
		}
	}
	return st
}

// full reports whether every quota class has reached its target.
func (st *sampleState) full() bool {
	return st.unmet == 0
}

// wants reports whether at least one class in the set is still below quota.
func (st *sampleState) wants(classes types.ClassSet) bool {
	for name := range classes {
		target, ok := st.quota[name]
		if ok && st.counts[name] < target {
			return true
		}
	}
	return false
}

// add counts every class of an accepted record, including classes already at quota.
func (st *sampleState) add(classes types.ClassSet) {
	for name := range classes {
		target, ok := st.quota[name]
		if !ok {
			st.incidental[name]++
			continue
		}
		st.counts[name]++
		if st.counts[name] == target {
			st.unmet--
		}
	}
}

// shortfall returns how far each under-quota class is from its target.
func (st *sampleState) shortfall() map[string]int {
	out := make(map[string]int)
	for name, target := range st.quota {
		if missing := target - st.counts[name]; missing > 0 {
			out[name] = missing
		}
	}
	return out
}
