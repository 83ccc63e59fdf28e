package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/datalog"
	"github.com/ssargent/ecudatalog/pkg/log"
	"github.com/ssargent/ecudatalog/pkg/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	list, err := s.store.List()
	s.metrics.RecordArchiveOperation("list", err == nil, time.Since(start))
	if err != nil {
		s.serverError(w, "list datalogs", err)
		return
	}
	if list == nil {
		list = []storage.Summary{}
	}
	s.metrics.UpdateArchiveStats(len(list))
	sendSuccess(w, ListResponse{Datalogs: list, Count: len(list)})
}

// handleUpload ingests a datalog sent as the raw request body. The optional
// name query parameter is kept for display.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.config.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	body := http.MaxBytesReader(w, r.Body, limit)

	doc, err := datalog.Read(body, s.datalogOpts...)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			sendError(w, fmt.Sprintf("datalog exceeds %d bytes", limit), http.StatusRequestEntityTooLarge)
		case isFormatError(err):
			sendError(w, err.Error(), http.StatusBadRequest)
		default:
			s.serverError(w, "read upload", err)
		}
		return
	}

	start := time.Now()
	summary, err := s.store.Ingest(doc, r.URL.Query().Get("name"))
	s.metrics.RecordArchiveOperation("ingest", err == nil, time.Since(start))
	if err != nil {
		s.serverError(w, "ingest datalog", err)
		return
	}
	s.metrics.RecordIngest(summary.Family, summary.StoredSize, summary.Frames)
	sendCreated(w, summary)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	summary, err := s.store.Summary(id)
	s.metrics.RecordArchiveOperation("summary", err == nil, time.Since(start))
	if err != nil {
		s.lookupError(w, id, err)
		return
	}
	sendSuccess(w, summary)
}

// handleRaw streams the stored bytes: an OPDL container for FlashPro logs,
// the plain file for KPro logs.
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	raw, err := s.store.Get(id)
	s.metrics.RecordArchiveOperation("get", err == nil, time.Since(start))
	if err != nil {
		s.lookupError(w, id, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id.String()+extension(raw)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	from, err := queryInt(r, "from", 0)
	if err != nil || from < 0 {
		sendError(w, "from must be a non-negative integer", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultFrameLimit)
	if err != nil || limit <= 0 {
		sendError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}
	if limit > maxFrameLimit {
		limit = maxFrameLimit
	}

	start := time.Now()
	doc, err := s.store.Load(id)
	s.metrics.RecordArchiveOperation("load", err == nil, time.Since(start))
	if err != nil {
		s.lookupError(w, id, err)
		return
	}

	sendSuccess(w, FramesResponse{
		ID:     id.String(),
		From:   from,
		Total:  doc.FrameCount(),
		Frames: doc.Samples(from, limit),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	err := s.store.Delete(id)
	s.metrics.RecordArchiveOperation("delete", err == nil, time.Since(start))
	if err != nil {
		s.lookupError(w, id, err)
		return
	}
	sendSuccess(w, map[string]string{"message": "Datalog deleted successfully"})
}

func (s *Server) idParam(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

func (s *Server) lookupError(w http.ResponseWriter, id ksuid.KSUID, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		sendError(w, fmt.Sprintf("Datalog %s not found", id), http.StatusNotFound)
		return
	}
	s.serverError(w, "load datalog "+id.String(), err)
}

func (s *Server) serverError(w http.ResponseWriter, what string, err error) {
	s.logger.Error("request failed", log.String("operation", what), log.Err(err))
	sendError(w, fmt.Sprintf("Failed to %s: %v", what, err), http.StatusInternalServerError)
}

func isFormatError(err error) bool {
	return errors.Is(err, codec.ErrInvalidFormat) || errors.Is(err, codec.ErrMalformedRecord)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func extension(raw []byte) string {
	id, err := codec.ParseIdentifier(raw)
	if err != nil {
		return ".bin"
	}
	switch {
	case id.Compressed():
		return ".opdl"
	case id.Family() == codec.FamilyKPro:
		return ".kal"
	default:
		return ".fpdl"
	}
}

