// Package calendar schedules movie nights on a calendar store.
//
// A Service owns exactly one Store and one permission state. Both are
// confined to a single owner goroutine: every public method hands its work to
// that goroutine and waits for the result, so the store is never touched
// concurrently. Permission requests run asynchronously; CreateEvent checks
// the current state without waiting and re-requests access when it is not
// granted.
package calendar
