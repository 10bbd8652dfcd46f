package render

import "sync"

// Recorder counts node mutations. The grid tests use it to assert that
// an idempotent patch produces zero mutations and that a shape change
// rebuilds exactly the expected number of cells.
type Recorder struct {
	mu      sync.Mutex
	total   int
	byOp    map[string]int
	perNode map[*Node]int
}

// NewRecorder constructs an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		byOp:    make(map[string]int),
		perNode: make(map[*Node]int),
	}
}

// NodeMutated implements Observer.
func (r *Recorder) NodeMutated(node *Node, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	r.byOp[op]++
	r.perNode[node]++
}

// Total returns the number of mutations observed since the last reset.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// CountOp returns how many mutations of one op were observed.
func (r *Recorder) CountOp(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byOp[op]
}

// NodeCount returns how many mutations touched the given node.
func (r *Recorder) NodeCount(node *Node) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.perNode[node]
}

// Reset clears all counters.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = 0
	r.byOp = make(map[string]int)
	r.perNode = make(map[*Node]int)
}
