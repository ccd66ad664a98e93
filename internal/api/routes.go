// Package api exposes the avatar's RAG engine over REST: streaming
// query endpoints, standalone tone conversion, session history
// management, and the index lifecycle operations.
package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/api/middleware"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	health := new(restful.WebService)
	health.Path("/health").Produces(restful.MIME_JSON)
	health.
		Route(health.GET("").
			To(handler.Health).
			Doc("Readiness probe").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))
	container.Add(health)

	ws := new(restful.WebService)
	ws.
		Path("/api/rag-llm").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.POST("/query").
			To(handler.Query).
			Consumes(restful.MIME_JSON).
			Produces("text/plain").
			Doc("Answer a question, streaming text chunks terminated by END_FLAG").
			Metadata(restfulspec.KeyOpenAPITags, []string{"query"}).
			Reads(QueryRequest{}).
			Returns(200, "OK", nil).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/query-with-tone").
			To(handler.QueryWithTone).
			Consumes(restful.MIME_JSON).
			Produces("text/plain").
			Doc("Answer a question with tone conversion applied by default").
			Metadata(restfulspec.KeyOpenAPITags, []string{"query"}).
			Reads(QueryRequest{}).
			Returns(200, "OK", nil).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/convert-tone").
			To(handler.ConvertTone).
			Doc("Restyle a text for a fixed tone, streamed or buffered").
			Metadata(restfulspec.KeyOpenAPITags, []string{"tone"}).
			Reads(ConvertToneRequest{}).
			Writes(ConvertToneResponse{}).
			Returns(200, "OK", ConvertToneResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/sessions/{session_id}/history").
			To(handler.SessionHistory).
			Doc("Get conversation history for a session").
			Metadata(restfulspec.KeyOpenAPITags, []string{"sessions"}).
			Param(ws.PathParameter("session_id", "session identifier").DataType("string")).
			Writes(HistoryResponse{}).
			Returns(200, "OK", HistoryResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.DELETE("/sessions/{session_id}/history").
			To(handler.ClearSessionHistory).
			Doc("Clear conversation history for a session").
			Metadata(restfulspec.KeyOpenAPITags, []string{"sessions"}).
			Param(ws.PathParameter("session_id", "session identifier").DataType("string")).
			Writes(ClearHistoryResponse{}).
			Returns(200, "OK", ClearHistoryResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/close").
			To(handler.CloseSession).
			Doc("Close a session, clearing its history").
			Metadata(restfulspec.KeyOpenAPITags, []string{"sessions"}).
			Reads(CloseSessionRequest{}).
			Writes(CloseSessionResponse{}).
			Returns(200, "OK", CloseSessionResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/init").
			To(handler.InitIndex).
			Doc("Load the corpus and rebuild the dense and sparse indexes").
			Metadata(restfulspec.KeyOpenAPITags, []string{"index"}).
			Writes(InitResponse{}).
			Returns(200, "OK", InitResponse{}).
			Returns(500, "Internal Server Error", InitResponse{}))

	ws.
		Route(ws.POST("/warmup").
			To(handler.Warmup).
			Doc("Warm the embedding and generation model paths").
			Metadata(restfulspec.KeyOpenAPITags, []string{"index"}).
			Writes(WarmupResponse{}).
			Returns(200, "OK", WarmupResponse{}))

	container.Add(ws)
}
