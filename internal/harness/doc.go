// Package harness runs end-to-end read scenarios.
//
// A scenario names a CUE schema directory and the rows to load, then runs
// query documents against a fresh database and checks what came back.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: users_with_posts
//	description: "Users with their posts, newest first"
//	schema: ../schema
//	fixtures:
//	  - ../fixtures/blog.sql
//	setup: |
//	  INSERT INTO users (id, name, email, age, active) VALUES ('u9', 'Zed', 'z@x', 50, 0);
//	max_concurrency: 2
//	steps:
//	  - name: all_users
//	    query:
//	      model: User
//	      many: true
//	      select: [id, name]
//	      include:
//	        posts:
//	          order_by: [{field: id, desc: true}]
//	    expect:
//	      count: 3
//	      ids: [u1, u2, u3]
//	      record_reads: 2
//	  - name: from_file
//	    query_file: ../queries/alice.yaml
//	  - name: bad_field
//	    query: {model: User, select: [nope], where: {id: u1}}
//	    expect:
//	      error: UNKNOWN_FIELD
//
// Paths resolve against the scenario file's directory. Each step carries
// either an inline query document or a query_file, in the format read by
// package querydoc.
//
// # Expectations
//
//   - error: the step must fail with this executor error code, or
//     INVALID_DOCUMENT when the document itself is rejected
//   - count: number of top-level records
//   - ids: top-level identifiers in order (requires id to be selected)
//   - record_reads: number of record queries issued for the step
//
// A step without expect must succeed.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/blog.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
//
// RunWithGolden additionally snapshots every step's serialized output as
// canonical JSON.
package harness
