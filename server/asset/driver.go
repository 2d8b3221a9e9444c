// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package asset

import (
	"fmt"
	"sort"
	"sync"

	"decred.org/dexcore/dex"
)

var (
	driversMtx sync.Mutex
	drivers    = make(map[string]Driver)
)

// Driver is the interface required of all proxy implementations. Setup should
// create a Proxy that keeps its state in the provided Ledger.
type Driver interface {
	Setup(ledger Ledger, logger dex.Logger) (Proxy, error)
}

// Register should be called by the init function of a proxy's package.
func Register(name string, driver Driver) {
	driversMtx.Lock()
	defer driversMtx.Unlock()

	if driver == nil {
		panic("asset: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("asset: Register called twice for proxy driver " + name)
	}
	drivers[name] = driver
}

// Setup sets up the named proxy.
func Setup(name string, ledger Ledger, logger dex.Logger) (Proxy, error) {
	driversMtx.Lock()
	drv, ok := drivers[name]
	driversMtx.Unlock()
	if !ok {
		return nil, fmt.Errorf("asset: unknown proxy driver %q", name)
	}
	return drv.Setup(ledger, logger)
}

// Drivers lists the registered driver names.
func Drivers() []string {
	driversMtx.Lock()
	defer driversMtx.Unlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
