// Package harness runs YAML scenarios against the reconciliation layer.
//
// # Scenario Format
//
//	name: sync_server_newer
//	description: "A newer server copy replaces local favorites"
//	start: "2024-01-01T00:01:40Z"
//	server:
//	  favorites: [3]
//	  last_modified: "2024-01-01T00:03:20.000Z"
//	steps:
//	  - op: favorites.set
//	    args: { ids: [1, 2] }
//	  - op: portal.login
//	    advance: 1m
//	    args: { username: ada, password: pw }
//	    expect:
//	      source: server
//	      favorites: [3]
//
// Each step may advance the manual clock before it runs. The optional server
// block starts an in-memory account server; without it the portal is
// device-only.
//
// # Deterministic Testing
//
// Scenarios run against a memory Storage Port and a manual clock that starts
// at the scenario's start time, so every run of a scenario produces the same
// trace. RunWithGolden compares that trace with testdata/golden/<name>.golden.
package harness
