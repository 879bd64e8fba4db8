// Package portability turns third-party API documentation into canonical
// requests and environment variables.
//
// This package enables callers to:
//   - Classify a file as a Postman collection, an OpenAPI/Swagger document or
//     a Postman environment export, with a confidence score
//   - Parse each format into a Collection of canonical.Request values or an
//     Environment of variables
//   - Detect authentication metadata (Postman auth blocks, OpenAPI security
//     schemes, auth-like headers) before any credentials are supplied
//
// # Supported Formats
//
//   - Postman Collection v2.x (JSON)
//   - OpenAPI 3.x and Swagger 2.0 (JSON only; YAML is rejected, not parsed)
//   - Postman environment exports (JSON)
//
// # Errors
//
// Whole-file structural problems (malformed JSON, missing required fields)
// return an *ImportError and no partial result. Problems with a single item
// (one malformed request or operation) skip that item and are recorded in
// the result's Warnings.
//
// # Usage
//
//	data, _ := os.ReadFile("petstore.json")
//	result, err := portability.Import(data, "petstore.json")
//	if err != nil {
//	    return err
//	}
//	for _, req := range result.Document.Collection.Requests {
//	    fmt.Println(req.Method, req.URL)
//	}
package portability
