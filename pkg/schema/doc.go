// Package schema checks tool-call arguments against the JSON Schema
// "parameters" object a tool advertises to the completion service.
//
// Only the subset used by tool catalogs is understood: an object with
// typed properties (string, integer, number, boolean, array) and a
// required list. Models often send numbers as strings, so numeric types
// accept numeric strings; the executor decodes them weakly afterwards.
//
//	s, err := schema.FromParameters(tool.Parameters)
//	if err != nil {
//	    // the catalog entry is malformed
//	}
//	if err := s.Validate(call.Args); err != nil {
//	    // report the bad arguments back to the model
//	}
//
// Custom types can be attached for domain checks:
//
//	s.Fields["brand"] = schema.Custom("brand", func(v any) error { ... })
package schema
