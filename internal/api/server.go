package api

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ovfkit/internal/export"
	"github.com/samcharles93/ovfkit/internal/logger"
	"github.com/samcharles93/ovfkit/internal/series"
	"github.com/samcharles93/ovfkit/internal/stats"
	"github.com/samcharles93/ovfkit/pkg/ovf"
)

// Server exposes decoding of files under a single data directory.
type Server struct {
	dataDir string
	store   *DecodeStore
	seqOpts []series.Option
	mmap    bool
	log     logger.Logger
	clock   func() time.Time
}

// Config holds the server's settings.
type Config struct {
	DataDir string
	Mmap    bool
	Logger  logger.Logger

	// Series options applied to every group request; the mode is chosen per
	// request.
	SeriesOptions []series.Option
}

func NewServer(cfg Config, store *DecodeStore) (*Server, error) {
	dir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = NewDecodeStore()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		dataDir: filepath.Clean(dir),
		store:   store,
		seqOpts: cfg.SeriesOptions,
		mmap:    cfg.Mmap,
		log:     log,
		clock:   time.Now,
	}, nil
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/headers", s.handleHeader)

	e.POST("/v1/decodes", s.handleCreateDecode)
	e.GET("/v1/decodes", s.handleListDecodes)
	e.GET("/v1/decodes/:id", s.handleGetDecode)
	e.DELETE("/v1/decodes/:id", s.handleDeleteDecode)

	e.GET("/v1/groups", s.handleGroup)
	e.GET("/v1/fields", s.handleField)
}

func (s *Server) handleHeader(c *echo.Context) error {
	path, err := s.resolve(c.QueryParam("path"))
	if err != nil {
		return s.writeFailure(c, err)
	}
	h, err := ovf.ReadFileHeader(path, ovf.WithMmap(s.mmap))
	if err != nil {
		return s.writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, HeaderResponse{
		Object: "header",
		Path:   s.relative(path),
		Header: h,
	})
}

func (s *Server) handleCreateDecode(c *echo.Context) error {
	req, err := decodeJSON[DecodeRequest](c.Request().Body)
	if err != nil {
		return s.writeFailure(c, err)
	}
	path, err := s.resolve(req.Path)
	if err != nil {
		return s.writeFailure(c, err)
	}

	mode := modeFor(req.Scalar)
	h, f, err := ovf.DecodeFile(path, mode, ovf.WithMmap(s.mmap))
	if err != nil {
		return s.writeFailure(c, err)
	}
	sum, err := stats.Summarize(f)
	if err != nil {
		return s.writeFailure(c, err)
	}

	rec := s.store.Put(DecodeRecord{
		Object:    "decode",
		CreatedAt: s.clock().Unix(),
		Path:      s.relative(path),
		Mode:      mode.String(),
		Shape:     f.Shape(),
		Width:     f.Width(),
		Checksum:  export.Checksum(f),
		Header:    h,
		Summary:   &sum,
	})
	s.log.Debug("decoded", "id", rec.ID, "path", rec.Path, "shape", rec.Shape)
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleListDecodes(c *echo.Context) error {
	return c.JSON(http.StatusOK, DecodeList{Object: "list", Data: s.store.List()})
}

func (s *Server) handleGetDecode(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "decode not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteDecode(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "decode not found")
	}
	return c.JSON(http.StatusOK, DeleteDecodeResponse{
		ID:      id,
		Object:  "decode",
		Deleted: true,
	})
}

func (s *Server) handleGroup(c *echo.Context) error {
	path, err := s.resolve(c.QueryParam("path"))
	if err != nil {
		return s.writeFailure(c, err)
	}
	mode, err := parseMode(c)
	if err != nil {
		return s.writeFailure(c, err)
	}

	opts := append([]series.Option{
		series.WithLogger(s.log),
		series.WithMmap(s.mmap),
	}, s.seqOpts...)
	opts = append(opts, series.WithMode(mode))

	ser, err := series.New(opts...).Load(c.Request().Context(), path)
	if err != nil {
		return s.writeFailure(c, err)
	}
	frames, err := stats.SummarizeSeries(ser)
	if err != nil {
		return s.writeFailure(c, err)
	}
	for i := range frames {
		frames[i].Path = s.relative(frames[i].Path)
	}
	return c.JSON(http.StatusOK, GroupResponse{
		Object: "group",
		Dir:    s.relative(ser.Dir),
		Mode:   mode.String(),
		Shape:  ser.Shape(),
		Frames: frames,
	})
}

// handleField streams the decoded field as an .npy array. The ETag is the
// payload checksum, so unchanged files answer If-None-Match with 304.
func (s *Server) handleField(c *echo.Context) error {
	path, err := s.resolve(c.QueryParam("path"))
	if err != nil {
		return s.writeFailure(c, err)
	}
	mode, err := parseMode(c)
	if err != nil {
		return s.writeFailure(c, err)
	}
	_, f, err := ovf.DecodeFile(path, mode, ovf.WithMmap(s.mmap))
	if err != nil {
		return s.writeFailure(c, err)
	}

	etag := `"` + export.Checksum(f) + `"`
	res := c.Response()
	res.Header().Set("ETag", etag)
	if match := c.Request().Header.Get("If-None-Match"); match == etag {
		return c.NoContent(http.StatusNotModified)
	}
	res.Header().Set(echo.HeaderContentType, "application/octet-stream")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filepath.Base(ovf.TrimCompressedSuffix(path))+`.npy"`)
	res.WriteHeader(http.StatusOK)
	return export.WriteNPY(res, f)
}
