package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/comfforts/logger"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/hankgalt/sentencepool"
	"github.com/hankgalt/sentencepool/pkg/domain"
	"github.com/hankgalt/sentencepool/pkg/pooling"
)

const headerRequestID = "X-Request-Id"

// Encoder turns texts into sentence embeddings.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

type EncodeRequest struct {
	Texts []string `json:"texts"`
}

type EncodeResponse struct {
	ID         string          `json:"id"`
	Embeddings []domain.Vector `json:"embeddings"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Server exposes pooling, and encoding when an encoder is configured, over HTTP.
type Server struct {
	baseCtx context.Context
	encoder Encoder
}

// NewServer creates a server. baseCtx carries the logger used for
// request logging; encoder may be nil.
func NewServer(baseCtx context.Context, encoder Encoder) *Server {
	return &Server{baseCtx: baseCtx, encoder: encoder}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/pool", s.handlePool)
	e.POST("/v1/encode", s.handleEncode)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"encoder": s.encoder != nil,
	})
}

func (s *Server) handlePool(c *echo.Context) error {
	id := requestID(c)
	req, err := decodeJSON[domain.PoolRequest](c.Request().Body)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "invalid JSON body: "+err.Error())
	}

	resp, err := sentencepool.Pool(s.requestContext(c, id), &req)
	if err != nil {
		if errors.Is(err, pooling.ErrShapeMismatch) || errors.Is(err, pooling.ErrUnknownStrategy) {
			return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	resp.ID = id
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEncode(c *echo.Context) error {
	id := requestID(c)
	if s.encoder == nil {
		return writeError(c, http.StatusServiceUnavailable, "server_error", "encoder not configured")
	}
	req, err := decodeJSON[EncodeRequest](c.Request().Body)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "invalid JSON body: "+err.Error())
	}
	if len(req.Texts) == 0 {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "texts must not be empty")
	}

	ctx := s.requestContext(c, id)
	embs, err := s.encoder.Encode(ctx, req.Texts)
	if err != nil {
		l, lErr := logger.LoggerFromContext(ctx)
		if lErr != nil {
			l = logger.GetSlogLogger()
		}
		l.Error("handleEncode - encode failed", "request-id", id, "error", err.Error())
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.JSON(http.StatusOK, EncodeResponse{ID: id, Embeddings: domain.Vectors(embs)})
}

// requestContext attaches the server's logger to the request context.
func (s *Server) requestContext(c *echo.Context, id string) context.Context {
	ctx := c.Request().Context()
	l, err := logger.LoggerFromContext(s.baseCtx)
	if err != nil {
		return ctx
	}
	l.Debug("request", "request-id", id, "method", c.Request().Method, "path", c.Request().URL.Path)
	return logger.WithLogger(ctx, l)
}

func requestID(c *echo.Context) string {
	id := c.Request().Header.Get(headerRequestID)
	if id == "" {
		id = "pool_" + uuid.NewString()
	}
	c.Response().Header().Set(headerRequestID, id)
	return id
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{Message: msg, Type: errType},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
