package gateway

import (
	"sync/atomic"

	"github.com/gregtusar/hypergate/pkg/models"
)

// coinSet is the set of coin symbols currently tradable on the exchange.
type coinSet map[string]struct{}

// coinCache publishes a coinSet by atomic pointer swap. Readers always see
// either the old complete set or the new complete set; a refresh builds the
// replacement off to the side so readers are never held behind a rebuild.
type coinCache struct {
	set atomic.Pointer[coinSet]
}

func (c *coinCache) get() (coinSet, bool) {
	p := c.set.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

// replace builds a fresh set from the universe and swaps it in.
func (c *coinCache) replace(universe []models.Asset) coinSet {
	next := make(coinSet, len(universe))
	for _, asset := range universe {
		next[asset.Name] = struct{}{}
	}
	c.set.Store(&next)
	return next
}

func (c *coinCache) invalidate() {
	c.set.Store(nil)
}
