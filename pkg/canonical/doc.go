// Package canonical defines the format-agnostic request model shared by every
// importer and by the request-spec builder.
//
// A Request is what a parser extracts from one source item (a Postman request
// or an OpenAPI operation). Its URL is kept exactly as authored, possibly
// templated ({{baseUrl}}/users) or root-relative (/users); resolution into a
// transport-ready Spec happens later, so one parsed collection can be rebuilt
// against several hostnames without re-parsing.
package canonical
