// Package harness runs scenario files against rule sets.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: calculator_basics
//	description: "What this scenario validates"
//	ruleset: builtin:calculator     # or a .cue path relative to this file
//	run_id: calc-001                # optional, defaults to "test-run"
//	golden: true                    # compare against testdata/golden/<name>.golden
//	cases:
//	  - input: "2 + 3 * 4"
//	    expect: "14"
//	  - input: "3 = 4"
//	    fatal: true
//	assertions:
//	  - type: trace_order
//	    rules: [multiplication, addition]
//	  - type: final_vars
//	    vars: { x: "5" }
//
// Cases run in order against one program, so variables assigned by one
// case are visible to later ones. Unknown fields are rejected.
//
// # Assertion Types
//
//   - trace_contains: the rule fired at least once
//   - trace_order: the rules first fired in the listed order
//   - trace_count: the rule fired exactly count times
//   - final_vars: the variable table holds the listed values
//
// # Deterministic Testing
//
// Every engine run in a scenario gets the scenario's fixed run ID, and
// trace sequence numbers restart at 1 for each case, so traces are stable
// across runs and can be compared against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/calculator.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
