package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/54b3r/ragmanual-go/internal/assistant"
	"github.com/54b3r/ragmanual-go/internal/ingestion"
	"github.com/54b3r/ragmanual-go/internal/logging"
	"github.com/54b3r/ragmanual-go/internal/store"
)

// ingestDone is the body of every successful ingest response.
const ingestDone = "Done!"

// defaultDocumentsLimit caps GET /rag/documents when no limit is given.
const defaultDocumentsLimit = 50

// multipartMemory is the in-memory part of a parsed upload; the rest spills
// to temporary files.
const multipartMemory = 32 << 20

// uploadFields are the multipart fields accepted as the uploaded PDF.
var uploadFields = []string{"file", "path"}

var errOutsideRoot = errors.New("path is outside the ingest root")

// handleIngest handles POST /rag/ingestPdf and POST /rag/ingest.
//
// A multipart request carries the PDF in a "file" or "path" file field, or a
// server-side path in a "path" text field. Any other request body is read as
// a server-side path.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var (
		res *ingestion.Result
		err error
	)
	if isMultipart(r) {
		res, err = s.ingestMultipart(r)
	} else {
		res, err = s.ingestBodyPath(r)
	}

	if status, rejected := ingestRejection(err); rejected {
		s.metrics.ingestRequestsTotal.WithLabelValues(outcomeRejected).Inc()
		log.Warn("ingest rejected", slog.Int("status", status), slog.Any("error", err))
		http.Error(w, http.StatusText(status), status)
		return
	}
	if err != nil {
		s.metrics.ingestRequestsTotal.WithLabelValues(outcomeError).Inc()
		log.Error("ingest failed", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.metrics.ingestRequestsTotal.WithLabelValues(outcomeOK).Inc()
	s.metrics.ingestChunksTotal.Add(float64(res.Chunks))
	log.Info("ingest complete",
		slog.String("source", res.Source),
		slog.Int("pages", res.Pages),
		slog.Int("chunks", res.Chunks),
	)
	writeText(w, ingestDone)
}

// errEmptyPath is returned for an ingest request naming no PDF. Like any
// other unreadable input it ends as a bare 500.
var errEmptyPath = errors.New("ingest path is empty")

// ingestRejection maps the failures the server refuses before reading a PDF
// to their status code. Everything else, malformed input included, is a 500.
func ingestRejection(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge, true
	case errors.Is(err, errOutsideRoot):
		return http.StatusForbidden, true
	}
	return 0, false
}

func (s *Server) ingestBodyPath(r *http.Request) (*ingestion.Result, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return s.ingestServerPath(r, string(body))
}

func (s *Server) ingestServerPath(r *http.Request, raw string) (*ingestion.Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errEmptyPath
	}
	path, err := s.resolveIngestPath(raw)
	if err != nil {
		return nil, err
	}
	return s.ingester.IngestFile(r.Context(), path)
}

func (s *Server) ingestMultipart(r *http.Request) (*ingestion.Result, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, err
		}
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	for _, field := range uploadFields {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s field: %w", field, err)
		}
		defer file.Close() //nolint:errcheck
		return s.ingestUpload(r, file, header)
	}

	return s.ingestServerPath(r, r.FormValue("path"))
}

func (s *Server) ingestUpload(r *http.Request, file multipart.File, header *multipart.FileHeader) (*ingestion.Result, error) {
	name := filepath.Base(filepath.Clean("/" + header.Filename))
	if name == "/" || name == "." {
		name = "upload.pdf"
	}
	return s.ingester.Ingest(r.Context(), ingestion.Source{
		Name:   name,
		Reader: file,
		Size:   header.Size,
	})
}

// resolveIngestPath resolves a client-supplied path against IngestRoot and
// rejects anything that escapes it. Without IngestRoot the path is only cleaned.
func (s *Server) resolveIngestPath(p string) (string, error) {
	if s.cfg.IngestRoot == "" {
		return filepath.Clean(p), nil
	}
	root, err := filepath.Abs(s.cfg.IngestRoot)
	if err != nil {
		return "", fmt.Errorf("resolve ingest root: %w", err)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return confineToDir(root, p)
}

// confineToDir verifies that target resolves to a path inside root after
// cleaning, rejecting ".." traversal.
func confineToDir(root, target string) (string, error) {
	root = filepath.Clean(root)
	target = filepath.Clean(target)
	if !strings.HasPrefix(target+string(filepath.Separator), root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errOutsideRoot, target)
	}
	return target, nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// handleQuery handles POST /rag/query (question in the body) and
// GET /rag/query?question=. mode=advised selects the advised prompt.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	question := r.URL.Query().Get("question")
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQueryBytes))
		if err != nil {
			s.observeQuery(outcomeRejected, start)
			status := http.StatusBadRequest
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
		if q := strings.TrimSpace(string(body)); q != "" {
			question = q
		}
	}
	if strings.TrimSpace(question) == "" {
		s.observeQuery(outcomeRejected, start)
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	mode := assistant.ParseMode(r.URL.Query().Get("mode"))
	ans, err := s.querier.Ask(r.Context(), question, mode)
	if errors.Is(err, assistant.ErrEmptyQuestion) {
		s.observeQuery(outcomeRejected, start)
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.observeQuery(outcomeError, start)
		log.Error("query failed", slog.String("mode", string(mode)), slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	outcome := outcomeOK
	if ans.NoContext {
		outcome = outcomeNoContext
	}
	s.observeQuery(outcome, start)
	log.Info("query answered",
		slog.String("mode", string(mode)),
		slog.String("outcome", outcome),
		slog.Int("documents", ans.Documents),
		slog.Int("page", ans.Page),
	)
	writeText(w, ans.Text)
}

func (s *Server) observeQuery(outcome string, start time.Time) {
	s.metrics.queryRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.queryDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// handleDocuments handles GET /rag/documents?limit=N.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	limit := defaultDocumentsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	resp := documentsResponse{Vectors: -1, Ingestions: []store.Ingestion{}}
	if s.cfg.Ledger != nil {
		rows, err := s.cfg.Ledger.List(r.Context(), limit)
		if err != nil {
			log.Error("documents: ledger list failed", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		resp.Ingestions = rows
	}
	if s.cfg.Vectors != nil {
		n, err := s.cfg.Vectors.Count(r.Context())
		if err != nil {
			log.Error("documents: vector count failed", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		resp.Vectors = n
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}
