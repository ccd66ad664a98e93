// Package middleware carries the shared go-restful filters and the
// error response envelope used by every route.
package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the per-request id assigned by Logger.
const RequestIDHeader = "X-Request-ID"

// Logger assigns a request id and logs one line per request with the
// status and elapsed time.
func Logger(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	requestID := req.Request.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	resp.AddHeader(RequestIDHeader, requestID)

	start := time.Now()
	chain.ProcessFilter(req, resp)

	log.Info().
		Str("request_id", requestID).
		Str("method", req.Request.Method).
		Str("path", req.Request.URL.Path).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("Request handled")
}

// RecoverPanic turns a panicking handler into a 500 instead of tearing
// down the connection.
func RecoverPanic(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("path", req.Request.URL.Path).
				Msg("Handler panicked")
			HandleError(resp, errors.New("internal server error"), http.StatusInternalServerError)
		}
	}()
	chain.ProcessFilter(req, resp)
}
