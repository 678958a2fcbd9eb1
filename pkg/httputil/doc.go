// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteNotFoundError(w, "alert not found")
//	httputil.WriteInternalError(w, err)
//
// # Request Parsing
//
//	var req ActorRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
//	id, ok := httputil.ParsePathStringOrError(w, r, "id")
//	limit, ok := httputil.ParseQueryIntRangeOrError(w, r, "limit", 100, 1, 1000)
//
// # Middleware
//
//	handler := httputil.Chain(router,
//		httputil.RequestIDMiddleware,
//		httputil.RecoveryMiddleware(logger),
//	)
//
// StatusRecorder captures the response status for request instrumentation.
package httputil
