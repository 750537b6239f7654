// Package rest exposes registered models as CRUD HTTP resources.
//
// A list endpoint (GET/HEAD /{model}) runs the filter/order/pagination
// chain from pkg/query and executes the assembled query against the
// configured store. Item endpoints (GET/PUT/DELETE /{model}/{id}) bypass
// filter compilation entirely. Responses use a uniform envelope:
//
//	{
//	  "success": true,
//	  "errors": [],
//	  "result": {"items": [...]},
//	  "pagination": {"total": 3, "limit": 20, "offset": 0}
//	}
//
// Malformed query strings produce HTTP 400 with exactly one error whose
// message is "Bad query arguments", regardless of which token failed.
package rest
