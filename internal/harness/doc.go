// Package harness runs scripted conversations against the real flow engine.
//
// A scenario is a YAML file: a list of steps (text messages, button
// presses, clock advances, store outages) and a list of assertions over the
// replies and the final store and session state.
//
//	name: create_then_view
//	description: A new user creates a card and views it
//	steps:
//	  - text: /start
//	  - press: create
//	    expect: {state: creating/name}
//	  - text: Ali
//	  ...
//	assertions:
//	  - type: card
//	    expect: {name: Ali, phone: "+998901234567"}
//
// Every scenario gets a fresh in-memory store, a manual clock and a fixed
// trace token. Steps go through engine.Dispatcher.Dispatch one at a time, so
// the recorded trace is deterministic and can be compared against golden
// files with RunWithGolden.
package harness
