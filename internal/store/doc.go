// Package store provides the SQLite-backed storage runtime for the profile
// core.
//
// The store holds:
//   - Accounts: fixed-size records keyed by their 32-byte address
//   - Events: append-only lifecycle log ordered by seq
//   - Reclaims: storage returned to a beneficiary when an account closes
//
// # Critical Patterns
//
// Address uniqueness
//   - accounts.address is the primary key
//   - Allocate inserts with ON CONFLICT DO NOTHING and reports an occupied
//     slot as ADDRESS_ALREADY_IN_USE, so two concurrent creates for the same
//     derived address cannot both succeed
//
// Atomic units of work
//   - Atomically runs one BEGIN IMMEDIATE transaction; a returned error
//     rolls back every account write and every appended event together
//   - The write lock is held from the start, so concurrent processes
//     serialize instead of failing on a read-to-write lock upgrade
//
// Append-only events
//   - Triggers abort any UPDATE or DELETE on the events table
//   - All reads use ORDER BY seq ASC
//
// # Database Configuration
//
// Settings travel in the DSN so they hold for every connection:
//
//   - _journal_mode=WAL: readers are not blocked by the writer
//   - _synchronous=NORMAL
//   - _busy_timeout: wait for the write lock (DefaultBusyTimeout unless
//     WithBusyTimeout is given)
//   - _txlock=immediate
//
// The schema stamps user_version; Open refuses a newer database.
package store
