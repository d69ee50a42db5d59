// Package browser provides pooled web browser sessions through Playwright.
//
// The package exists so a crawling pipeline can render JavaScript-heavy
// pages without paying a browser launch per request. Sessions are expensive
// external processes; the pool pre-warms a fixed number of them at startup
// and hands each out to exactly one caller at a time.
//
// # Architecture
//
// The package is built around three core concepts:
//
// 1. Driver: the capability surface of one live session (navigate, cookies,
// wait, script, screenshot, source). Session is the Playwright-backed
// implementation; tests use fakes.
//
// 2. Factory: provisions sessions in one of three modes, resolved once from
// configuration: a locally installed driver directory, a remote driver
// endpoint, or an automatically installed driver.
//
// 3. Pool: a bounded free list with blocking checkout. A session that fails
// mid-use is never returned; it is terminated and replaced by a fresh one so
// the pool stays at full strength.
//
// # Session lifecycle
//
//  1. Pre-warm: NewPool invokes the Factory synchronously, pool-size times.
//  2. Checkout: Acquire blocks up to the configured timeout for a free session.
//  3. Return: Release puts a healthy session back; Replace swaps a broken one.
//  4. Shutdown: the pool drains once and terminates every idle session.
//
// # Example usage
//
//	factory, err := browser.NewFactory(browser.FactoryOptions{
//	    Kind:     "chromium",
//	    Headless: true,
//	}, log)
//
//	pool, err := browser.NewPool(factory, browser.PoolOptions{
//	    Size:           5,
//	    AcquireTimeout: 30 * time.Second,
//	}, log)
//
//	d, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	if err := d.Navigate("https://example.com"); err != nil {
//	    pool.Replace(d)
//	    return err
//	}
//	markup, err := d.PageSource()
//	pool.Release(d)
package browser
