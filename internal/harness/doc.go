// Package harness runs profile lifecycle scenarios written in YAML.
//
// A scenario declares signing keys and users by alias, then runs a list of
// create and delete steps against a fresh in-memory runtime with a fixed
// clock and fixed operation ids. Each step states the outcome it expects:
// "ok" or an error code. The run produces a trace in which every address
// is replaced by its alias, so traces are stable and readable in golden
// files.
//
// # Scenario Format
//
//	name: recreate_after_delete
//	description: "Delete frees the slot; recreate lands on the same address"
//	keys:
//	  alice: 1
//	  mallory: 2
//	users:
//	  - alias: alice_user
//	    authority: alice
//	    salt: 1
//	profiles:
//	  - alias: alice_gaming
//	    namespace: gaming
//	    user: alice_user
//	steps:
//	  - op: create
//	    caller: alice
//	    user: alice_user
//	    namespace: personal
//	    as: alice_personal
//	    expect: ok
//	  - op: delete
//	    caller: mallory
//	    profile: alice_personal
//	    user: alice_user
//	    expect: UNAUTHORIZED
//	assertions:
//	  - type: event_count
//	    kind: ProfileCreated
//	    count: 1
//	  - type: profile_exists
//	    profile: alice_personal
//	    exists: true
//
// Key values are the fill byte of a deterministic test key; salt values are
// the last byte of a deterministic user salt. Entries under profiles are
// derived up front so steps can refer to slots that do not exist yet.
//
// A step may set signer to a key other than caller. The request is then
// signed by signer while claiming caller's authority, which the credential
// check rejects.
//
// # Assertion Types
//
//   - event_count: exactly count events of kind were committed
//   - event_sequence: the committed event kinds, in log order, equal kinds
//   - event_contains: some committed event of kind has the given fields
//   - profile_exists: the profile slot is (or is not) occupied
//   - refunded: key has been refunded exactly bytes of reclaimed storage
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/recreate.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
