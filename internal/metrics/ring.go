package metrics

// Ring keeps the most recent samples up to a fixed capacity. Once full, each
// Push overwrites the oldest sample. Ring is not safe for concurrent use; the
// Collector guards its rings with a single mutex.
type Ring struct {
	samples []int64
	next    int
	size    int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = MAX_SAMPLES
	}
	return &Ring{samples: make([]int64, capacity)}
}

func (r *Ring) Push(value int64) {
	r.samples[r.next] = value
	r.next = (r.next + 1) % len(r.samples)
	if r.size < len(r.samples) {
		r.size++
	}
}

func (r *Ring) Len() int {
	return r.size
}

func (r *Ring) Cap() int {
	return len(r.samples)
}

// Values returns a copy of the stored samples, oldest first.
func (r *Ring) Values() []int64 {
	out := make([]int64, 0, r.size)
	start := r.next - r.size
	if start < 0 {
		start += len(r.samples)
	}
	for i := 0; i < r.size; i++ {
		out = append(out, r.samples[(start+i)%len(r.samples)])
	}
	return out
}

func (r *Ring) Sum() float64 {
	var sum float64
	for i := 0; i < r.size; i++ {
		idx := (r.next - 1 - i + len(r.samples)) % len(r.samples)
		sum += float64(r.samples[idx])
	}
	return sum
}
