// Package assert guards the invariants the replicated log is assumed to
// uphold. A violation here means a peer or a prior commit broke the
// contract described in spec section 7 — there is no local recovery,
// so we abort the same way the original's RELEASE_ASSERT does.
package assert

import "fmt"

// Release panics with a formatted message when cond is false.
func Release(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("shardmgr: invariant violated: "+format, args...))
	}
}
