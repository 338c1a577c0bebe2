// Package lifecycle creates and deletes profiles.
//
// A profile moves Absent → Active → Absent. There is no update: namespace
// and user are fixed at creation. Each operation is one synchronous unit of
// work executed inside Runtime.Atomically:
//
//	Create: verify signer → validate namespace → derive address →
//	        reject occupied slot → load user → authorize → allocate →
//	        write record → append ProfileCreated
//
//	Delete: verify signer → load profile and user → verify profile address →
//	        authorize → append ProfileDeleted → reclaim storage
//
// Any error aborts the unit of work, so a rejected operation leaves no
// record mutation and no event behind. The manager owns no goroutines or
// locks; concurrent creates for the same derived address are serialized by
// the runtime, which lets at most one of them allocate the slot.
package lifecycle
