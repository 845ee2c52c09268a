package webserver

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/trustek/src/ai/core"
	"github.com/stake-plus/trustek/src/auth"
	"github.com/stake-plus/trustek/src/factcheck"
)

const maxUploadBytes = 20 << 20

type FactChecks struct {
	svc *factcheck.Service
}

func NewFactChecks(svc *factcheck.Service) FactChecks {
	return FactChecks{svc: svc}
}

type createRequest struct {
	Mode     string `json:"mode"`
	Claim    string `json:"claim"`
	FileName string `json:"fileName"`
	Image    string `json:"image"`
}

// Create runs an analysis. JSON bodies carry the image as base64 (a data URL
// prefix is accepted); multipart bodies carry it in the "image" file field.
func (h FactChecks) Create(c *gin.Context) {
	user, _ := auth.UserFrom(c)

	req, err := bindAnalysisRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	report, err := h.svc.Submit(c.Request.Context(), user.ID, req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, report)
	case errors.Is(err, factcheck.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"err": factcheck.UserMessage(err)})
	case errors.Is(err, factcheck.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"err": factcheck.UserMessage(err)})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"err": factcheck.GenericFailureMessage})
	}
}

func (h FactChecks) State(c *gin.Context) {
	user, _ := auth.UserFrom(c)
	c.JSON(http.StatusOK, h.svc.State(user.ID))
}

func (h FactChecks) Reset(c *gin.Context) {
	user, _ := auth.UserFrom(c)
	h.svc.Reset(user.ID)
	c.JSON(http.StatusOK, h.svc.State(user.ID))
}

func bindAnalysisRequest(c *gin.Context) (core.AnalysisRequest, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if errors.Is(err, http.ErrMissingFile) {
			return core.AnalysisRequest{Mode: core.ModeText, Claim: c.PostForm("claim")}, nil
		}
		if err != nil {
			return core.AnalysisRequest{}, err
		}
		if fh.Size > maxUploadBytes {
			return core.AnalysisRequest{}, errors.New("image too large")
		}
		f, err := fh.Open()
		if err != nil {
			return core.AnalysisRequest{}, err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
		if err != nil {
			return core.AnalysisRequest{}, err
		}
		return core.AnalysisRequest{Mode: core.ModeImage, Image: data, FileName: fh.Filename}, nil
	}

	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return core.AnalysisRequest{}, err
	}
	mode := core.Mode(strings.ToLower(strings.TrimSpace(body.Mode)))
	if mode == "" {
		mode = core.ModeText
		if body.Image != "" {
			mode = core.ModeImage
		}
	}
	req := core.AnalysisRequest{Mode: mode, Claim: body.Claim, FileName: body.FileName}
	if body.Image != "" {
		data, err := decodeImage(body.Image)
		if err != nil {
			return core.AnalysisRequest{}, err
		}
		req.Image = data
	}
	return req, nil
}

// decodeImage accepts raw base64 or a data URL.
func decodeImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.New("image is not valid base64")
	}
	return data, nil
}
