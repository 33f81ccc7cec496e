package render

import (
	"github.com/vango-dev/ango/pkg/host"
	"github.com/vango-dev/ango/pkg/instrument"
	"github.com/vango-dev/ango/pkg/vdom"
)

// pool keeps retired live roots per component type. A new instance of the
// same type reconciles against a pooled root instead of building from
// scratch. Each type keeps at most size roots; the oldest is evicted first.
type pool struct {
	size    int
	bases   map[vdom.TypeID][]host.Node
	metrics *instrument.Metrics
}

func newPool(size int, m *instrument.Metrics) *pool {
	return &pool{
		size:    size,
		bases:   make(map[vdom.TypeID][]host.Node),
		metrics: m,
	}
}

func (p *pool) put(t vdom.TypeID, base host.Node) {
	if p.size == 0 || base == nil {
		return
	}
	list := p.bases[t]
	if len(list) >= p.size {
		list = list[1:]
	}
	p.bases[t] = append(list, base)
}

func (p *pool) take(t vdom.TypeID) host.Node {
	list := p.bases[t]
	if len(list) == 0 {
		p.metrics.RecordPool(false)
		return nil
	}
	base := list[len(list)-1]
	p.bases[t] = list[:len(list)-1]
	p.metrics.RecordPool(true)
	return base
}

func (p *pool) count(t vdom.TypeID) int {
	return len(p.bases[t])
}
