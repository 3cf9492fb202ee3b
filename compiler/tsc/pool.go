package tsc

import (
	"github.com/puzpuzpuz/xsync/v2"
)

// instancePool is a bounded, MPMC-queue backed pool of compiler VMs.
// Unlike sync.Pool, pooled instances are never garbage collected for the
// lifetime of the pool: a warm TypeScript compiler VM is expensive to
// build and should stay alive between compiles.
type instancePool struct {
	factory func() (*vmInstance, error)
	q       *xsync.MPMCQueue
}

func newInstancePool(capacity int, factory func() (*vmInstance, error)) *instancePool {
	return &instancePool{
		factory: factory,
		q:       xsync.NewMPMCQueue(capacity),
	}
}

func (p *instancePool) get() (*vmInstance, error) {
	item, ok := p.q.TryDequeue()
	if ok {
		return item.(*vmInstance), nil
	}
	return p.factory()
}

func (p *instancePool) put(inst *vmInstance) {
	if inst == nil {
		panic("tsc: cannot put nil instance into the pool")
	}
	p.q.TryEnqueue(inst)
}
