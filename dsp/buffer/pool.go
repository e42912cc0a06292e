package buffer

import "sync"

// Pool recycles float64 scratch slices so per-block rendering does not
// allocate.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				s := make([]float64, 0)
				return &s
			},
		},
	}
}

// Get returns a zeroed slice of length n. Return it with Put.
func (p *Pool) Get(n int) *[]float64 {
	if n < 0 {
		n = 0
	}
	sp := p.pool.Get().(*[]float64)
	if cap(*sp) < n {
		*sp = make([]float64, n)
	} else {
		*sp = (*sp)[:n]
		clear(*sp)
	}
	return sp
}

// Put hands a slice back. The caller must not use it afterwards.
func (p *Pool) Put(sp *[]float64) {
	if sp == nil {
		return
	}
	p.pool.Put(sp)
}
