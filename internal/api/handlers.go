package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"time"

	"crypverify-go/internal/chain"
	"crypverify-go/internal/documents"
	"crypverify-go/internal/models"
	"crypverify-go/internal/receipt"
	"crypverify-go/internal/review"
	"crypverify-go/internal/store"
	"crypverify-go/internal/throttle"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxUploadBytes = 32 << 20

// RouterOptions configures NewRouter. A nil Clients keys the verify cooldown
// by each request's peer address.
type RouterOptions struct {
	AdminJwtSecret string
	Documents      documents.Store
	AllowedOrigins []string
	Clients        *throttle.ClientResolver
}

type server struct {
	svc     *VerificationService
	docs    documents.Store
	clients *throttle.ClientResolver
}

// NewRouter builds the HTTP surface: public verification and intake, the
// JWT-gated admin routes, health and metrics.
func NewRouter(svc *VerificationService, opts RouterOptions) http.Handler {
	s := &server{svc: svc, docs: opts.Documents, clients: opts.Clients}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/verify", s.verify).Methods(http.MethodPost)
	v1.HandleFunc("/prices/{symbol}", s.price).Methods(http.MethodGet)
	v1.HandleFunc("/submissions", s.submit).Methods(http.MethodPost)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(AdminAuth(opts.AdminJwtSecret))
	admin.HandleFunc("/submissions", s.listSubmissions).Methods(http.MethodGet)
	admin.HandleFunc("/submissions/{id}/audit", s.auditSubmission).Methods(http.MethodGet)
	admin.HandleFunc("/submissions/{id}/status", s.setStatus).Methods(http.MethodPost)
	admin.HandleFunc("/submissions/{id}", s.deleteSubmission).Methods(http.MethodDelete)
	admin.HandleFunc("/audits", s.auditAll).Methods(http.MethodGet)
	admin.HandleFunc("/receipts/manual", s.manualReceipt).Methods(http.MethodPost)
	if opts.Documents != nil {
		admin.HandleFunc("/documents/{path:.+}", s.document).Methods(http.MethodGet)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.ExposedHeaders([]string{"Retry-After"}),
	)
	accessLog := zap.NewStdLog(zap.L()).Writer()

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CombinedLoggingHandler(accessLog, cors(r)))
}

type verifyRequest struct {
	Hash string `json:"hash"`
}

type receiptResponse struct {
	Receipt models.Receipt  `json:"receipt"`
	Display receipt.Display `json:"display"`
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.HealthCheck(r.Context()); err != nil {
		WriteSuccess(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "request body must be {\"hash\": \"...\"}")
		return
	}

	rec, err := s.svc.Verify(r.Context(), s.clients.ClientKey(r), req.Hash)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeReceipt(w, r, *rec)
}

func (s *server) price(w http.ResponseWriter, r *http.Request) {
	symbol, err := models.ParseChainSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		WriteError(w, http.StatusNotFound, "unknown_chain", err.Error())
		return
	}
	WriteSuccess(w, http.StatusOK, s.svc.Quote(r.Context(), symbol))
}

func (s *server) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_form", "expected multipart form upload")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			zap.L().Warn("Failed to remove multipart temp files", zap.Error(err))
		}
	}()

	params := SubmitParams{
		FullName: r.FormValue("full_name"),
		Email:    r.FormValue("email"),
		TxHash:   r.FormValue("tx_hash"),
	}
	uploads := []struct {
		field  string
		target *DocumentUpload
	}{
		{"id_document", &params.IdDocument},
		{"selfie", &params.Selfie},
		{"receipt", &params.Receipt},
	}
	for _, u := range uploads {
		f, header, err := r.FormFile(u.field)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "missing_document", fmt.Sprintf("%s file is required", u.field))
			return
		}
		defer closeFile(f)
		*u.target = DocumentUpload{Filename: header.Filename, Content: f}
	}

	sub, err := s.svc.Submit(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, map[string]string{
		"id":           sub.Id,
		"reference_id": sub.ReferenceId,
		"status":       string(sub.Status),
	})
}

type submissionView struct {
	models.VerificationSubmission
	DocumentURLs models.DocumentRefs `json:"document_urls"`
}

func (s *server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.svc.ListSubmissions(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	views := make([]submissionView, len(subs))
	for i, sub := range subs {
		views[i] = submissionView{VerificationSubmission: sub, DocumentURLs: s.svc.DocumentURLs(sub)}
	}
	WriteSuccess(w, http.StatusOK, views)
}

func (s *server) auditSubmission(w http.ResponseWriter, r *http.Request) {
	sub, rec, err := s.svc.Audit(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"submission": sub,
		"receipt":    rec,
		"display":    s.svc.Display(*rec),
	})
}

type auditView struct {
	ReferenceId string           `json:"reference_id"`
	TxHash      string           `json:"tx_hash"`
	Display     *receipt.Display `json:"display,omitempty"`
	Error       string           `json:"error,omitempty"`
}

func (s *server) auditAll(w http.ResponseWriter, r *http.Request) {
	results, err := s.svc.AuditAll(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	views := make([]auditView, len(results))
	for i, res := range results {
		views[i] = auditView{ReferenceId: res.Submission.ReferenceId, TxHash: res.Submission.TxHash}
		if res.Err != nil {
			views[i].Error = res.Err.Error()
			continue
		}
		d := s.svc.Display(*res.Receipt)
		views[i].Display = &d
	}
	WriteSuccess(w, http.StatusOK, views)
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Submission models.VerificationSubmission `json:"submission"`
	Audit      *receipt.Display              `json:"audit,omitempty"`
	AuditError string                        `json:"audit_error,omitempty"`
	Notified   bool                          `json:"notified"`
	Warning    string                        `json:"warning,omitempty"`
}

func (s *server) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "request body must be {\"status\": \"APPROVED|REJECTED\"}")
		return
	}
	status, err := models.ParseSubmissionStatus(req.Status)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	id := mux.Vars(r)["id"]
	outcome, err := s.svc.Review(r.Context(), id, status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	zap.L().Info("Reviewer decision",
		zap.String("reviewer", ReviewerFromContext(r.Context())),
		zap.String("submission_id", id),
		zap.String("status", string(status)))

	resp := statusResponse{Submission: outcome.Submission, Notified: outcome.Notified()}
	if outcome.Audit != nil {
		d := s.svc.Display(*outcome.Audit)
		resp.Audit = &d
	}
	if outcome.AuditErr != nil {
		resp.AuditError = outcome.AuditErr.Error()
	}
	if outcome.NotifyErr != nil {
		resp.Warning = fmt.Sprintf("status updated but the submitter was not notified: %v", outcome.NotifyErr.Err)
	}
	WriteSuccess(w, http.StatusOK, resp)
}

func (s *server) deleteSubmission(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteSubmission(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// document streams an uploaded file to a reviewer through the document store
func (s *server) document(w http.ResponseWriter, r *http.Request) {
	objectPath := mux.Vars(r)["path"]
	rc, err := s.docs.Open(r.Context(), objectPath)
	switch {
	case errors.Is(err, documents.ErrInvalidPath):
		WriteError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return
	case errors.Is(err, fs.ErrNotExist):
		WriteError(w, http.StatusNotFound, "not_found", "document not found")
		return
	case err != nil:
		zap.L().Error("Failed to open document", zap.String("path", objectPath), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "unable to read document")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(objectPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		zap.L().Warn("Document transfer interrupted", zap.String("path", objectPath), zap.Error(err))
	}
}

type manualRequest struct {
	Chain  string          `json:"chain"`
	Amount decimal.Decimal `json:"amount"`
	Hash   string          `json:"hash"`
}

func (s *server) manualReceipt(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "request body must be {\"chain\", \"amount\", \"hash\"}")
		return
	}
	symbol, err := models.ParseChainSymbol(req.Chain)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "unknown_chain", err.Error())
		return
	}

	rec, err := s.svc.ManualReceipt(r.Context(), symbol, req.Amount, req.Hash)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeReceipt(w, r, *rec)
}

func (s *server) writeReceipt(w http.ResponseWriter, r *http.Request, rec models.Receipt) {
	display := s.svc.Display(rec)
	if r.URL.Query().Get("format") != "pdf" {
		WriteSuccess(w, http.StatusOK, receiptResponse{Receipt: rec, Display: display})
		return
	}

	var buf bytes.Buffer
	if err := receipt.WritePDF(&buf, display); err != nil {
		zap.L().Error("Failed to render receipt PDF", zap.String("hash", rec.Transaction.Hash), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "render_failed", "unable to render receipt")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="Crypverify_Receipt.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		zap.L().Warn("Failed to write receipt PDF", zap.Error(err))
	}
}

func (s *server) writeServiceError(w http.ResponseWriter, err error) {
	var rateLimited *RateLimitedError
	var lookupErr *chain.LookupError
	var persistErr *review.PersistenceError

	switch {
	case errors.As(err, &rateLimited):
		seconds := int((rateLimited.RetryAfter + time.Second - 1) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		WriteError(w, http.StatusTooManyRequests, "rate_limited", throttle.ErrRateLimited.Error())
	case errors.As(err, &lookupErr):
		WriteError(w, http.StatusUnprocessableEntity, "lookup_failed", lookupErr.Error())
	case errors.Is(err, ErrInvalidRequest):
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, store.ErrSubmissionNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, review.ErrInvalidTransition), errors.Is(err, store.ErrConcurrentModification):
		WriteError(w, http.StatusConflict, "conflict", err.Error())
	case errors.As(err, &persistErr):
		zap.L().Error("Review decision not persisted", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "persistence_failed", "status was not changed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		zap.L().Error("Request failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func closeFile(f multipart.File) {
	if err := f.Close(); err != nil {
		zap.L().Warn("Failed to close uploaded file", zap.Error(err))
	}
}
