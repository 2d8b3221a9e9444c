// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package asset

import (
	"fmt"
	"sync"

	"decred.org/dexcore/dex"
)

// Registry maps proxy ids to Proxy instances. A registration is permanent.
type Registry struct {
	mtx     sync.RWMutex
	proxies map[dex.ProxyID]Proxy
	ids     []dex.ProxyID
}

// NewRegistry is the constructor for an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		proxies: make(map[dex.ProxyID]Proxy),
	}
}

// Register registers the proxy under the id. The id must be non-zero and not
// yet registered.
func (r *Registry) Register(id dex.ProxyID, p Proxy) error {
	if id == 0 {
		return ErrZeroProxyID
	}
	if p == nil {
		return ErrNilProxy
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, found := r.proxies[id]; found {
		return dex.NewError(ErrProxyRegistered, id.String())
	}
	r.proxies[id] = p
	r.ids = append(r.ids, id)
	log.Infof("Registered asset proxy %s at %s", id, p.Address())
	return nil
}

// ProxyOf returns the proxy registered under id, or nil.
func (r *Registry) ProxyOf(id dex.ProxyID) Proxy {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.proxies[id]
}

// IDs lists the registered ids in registration order.
func (r *Registry) IDs() []dex.ProxyID {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	ids := make([]dex.ProxyID, len(r.ids))
	copy(ids, r.ids)
	return ids
}

// String implements Stringer.
func (r *Registry) String() string {
	return fmt.Sprintf("%v", r.IDs())
}
