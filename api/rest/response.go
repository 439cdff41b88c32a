// Package rest exposes the directory core as a request/response HTTP API:
// one endpoint per core operation, structured error payloads mirroring the
// core's error taxonomy. Clients poll; nothing is pushed.
package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yomogi/linkup/audit"
	mw "github.com/yomogi/linkup/middleware"
	"github.com/yomogi/linkup/store"
)

// apiError is the wire form of a core error.
type apiError struct {
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
	Rule  string `json:"rule,omitempty"`
	Msg   string `json:"msg"`
}

// writeError maps a core error onto an HTTP status and a structured payload.
// Storage errors are reported opaquely; the wrapped driver error stays out of
// the response.
func writeError(c *gin.Context, err error) {
	var ve *store.ValidationError
	var ce *store.ConflictError
	var nf *store.NotFoundError
	var de *store.DuplicateError
	var se *store.SelfReferenceError
	var tl *store.TooLargeError
	var pe *store.PermissionError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": apiError{
			Kind: "validation", Field: ve.Field, Rule: ve.Rule, Msg: ve.Error()}})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{"error": apiError{
			Kind: "conflict", Field: ce.Field, Msg: ce.Error()}})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": apiError{
			Kind: "not_found", Msg: nf.Error()}})
	case errors.As(err, &de):
		c.JSON(http.StatusConflict, gin.H{"error": apiError{
			Kind: "duplicate", Msg: de.Error()}})
	case errors.As(err, &se):
		c.JSON(http.StatusBadRequest, gin.H{"error": apiError{
			Kind: "self_reference", Msg: se.Error()}})
	case errors.As(err, &tl):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": apiError{
			Kind: "too_large", Msg: tl.Error()}})
	case errors.As(err, &pe):
		c.JSON(http.StatusForbidden, gin.H{"error": apiError{
			Kind: "permission", Msg: pe.Error()}})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": apiError{
			Kind: "storage", Msg: "internal error"}})
	}
}

// recordAudit logs a mutating operation. svc may be nil in tests.
func recordAudit(svc *audit.Service, c *gin.Context, action string, start time.Time, req, resp interface{}, err error) {
	if svc == nil {
		return
	}
	entry := audit.Entry{
		TraceID:    mw.GetTraceID(c),
		Username:   mw.GetUsername(c),
		Action:     action,
		Request:    req,
		Response:   resp,
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if id := mw.GetAccountID(c); id != 0 {
		entry.AccountID = &id
	}
	if err != nil {
		entry.Error = err.Error()
	}
	svc.Log(entry)
}
