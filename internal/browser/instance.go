package browser

import (
	"context"
	"sync"
	"time"
)

// Instance is a single launched browser driver bound to one session, with at
// most one reused "main" page.
type Instance struct {
	SessionID string

	mu       sync.Mutex
	driver   *Driver
	mainPage *Page
	lastUsed time.Time

	closeFn func() // additional teardown beyond the driver (e.g. sandbox cleanup)
}

func newInstance(sessionID string, driver *Driver, closeFn func()) *Instance {
	return &Instance{SessionID: sessionID, driver: driver, lastUsed: time.Now(), closeFn: closeFn}
}

func (i *Instance) touch() {
	i.mu.Lock()
	i.lastUsed = time.Now()
	i.mu.Unlock()
}

func (i *Instance) idleSince() time.Time {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastUsed
}

// page returns the cached main page, lazily creating one blank about:blank
// page with the device metrics override applied.
func (i *Instance) page(ctx context.Context, viewportWidth, viewportHeight int) (*Page, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.lastUsed = time.Now()

	if i.mainPage != nil {
		return i.mainPage, nil
	}

	page, err := NewPage(ctx, i.driver, "about:blank")
	if err != nil {
		return nil, err
	}
	if err := page.OverrideViewport(ctx, viewportWidth, viewportHeight); err != nil {
		driverLog.Warn("override viewport for session %s failed: %v", i.SessionID, err)
	}
	i.mainPage = page
	return page, nil
}

// tryReap claims the instance for reaping only if it isn't currently held —
// a caller mid-page() (e.g. awaiting the driver while building the main
// page) keeps the lock, so TryLock fails and this instance is skipped for
// this sweep rather than stalling behind it. Returns whether it actually
// closed the instance.
func (i *Instance) tryReap(idleTimeout time.Duration) bool {
	if !i.mu.TryLock() {
		return false
	}
	defer i.mu.Unlock()
	if time.Since(i.lastUsed) <= idleTimeout {
		return false
	}
	i.closeLocked()
	return true
}

// close tears down the driver connection and any additional backend state
// (sandbox container, host process), blocking until any in-flight page()
// call releases the instance first.
func (i *Instance) close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closeLocked()
}

func (i *Instance) closeLocked() {
	_ = i.driver.Close()
	if i.closeFn != nil {
		i.closeFn()
	}
}
