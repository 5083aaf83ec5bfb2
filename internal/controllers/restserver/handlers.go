package restserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/chrissnell/zhl16/internal/storage"
	"github.com/chrissnell/zhl16/pkg/buhlmann"
	"github.com/chrissnell/zhl16/pkg/config"
	"github.com/chrissnell/zhl16/pkg/profile"
	"github.com/gorilla/mux"
)

// maxBodyBytes caps profile and branch request bodies
const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// ModelInfo describes one coefficient table
type ModelInfo struct {
	Name         string                 `json:"name"`
	Compartments []buhlmann.Coefficient `json:"compartments"`
}

// BranchRequest runs a base profile, then each branch from the resulting state
type BranchRequest struct {
	Profile  config.ProfileData     `json:"profile"`
	Branches [][]config.SegmentData `json:"branches"`
}

// BranchResponse holds the base timeline and one timeline per branch
type BranchResponse struct {
	Base     *profile.Timeline      `json:"base"`
	Branches []profile.BranchResult `json:"branches"`
}

// ConversionResponse is returned by the convert endpoint
type ConversionResponse struct {
	Depth            float64 `json:"depth"`
	GaugePressure    float64 `json:"gauge_pressure"`
	AbsolutePressure float64 `json:"absolute_pressure"`
}

func (c *Controller) getModels(w http.ResponseWriter, req *http.Request) {
	names := buhlmann.ModelNames()
	models := make([]ModelInfo, 0, len(names))
	for _, name := range names {
		m, err := buhlmann.LookupModel(name)
		if err != nil {
			c.writeError(w, req, err)
			return
		}
		models = append(models, ModelInfo{Name: m.Name, Compartments: m.Compartments[:]})
	}
	c.formatter.WriteResponse(w, req, http.StatusOK, models)
}

func (c *Controller) postProfile(w http.ResponseWriter, req *http.Request) {
	var p config.ProfileData
	if err := decodeBody(w, req, &p); err != nil {
		c.writeError(w, req, err)
		return
	}

	tl, _, err := c.runProfile(req, &p)
	if err != nil {
		c.writeError(w, req, err)
		return
	}

	if err := c.save(req, tl); err != nil {
		c.writeError(w, req, err)
		return
	}
	c.formatter.WriteResponse(w, req, http.StatusCreated, tl)
}

func (c *Controller) postBranches(w http.ResponseWriter, req *http.Request) {
	var br BranchRequest
	if err := decodeBody(w, req, &br); err != nil {
		c.writeError(w, req, err)
		return
	}
	if len(br.Branches) == 0 {
		c.writeError(w, req, fmt.Errorf("%w: no branches given", errBadRequest))
		return
	}

	base, point, err := c.runProfile(req, &br.Profile)
	if err != nil {
		c.writeError(w, req, err)
		return
	}

	// Branch segments share the base profile's gases and gradient factor
	branches := make([][]profile.Segment, len(br.Branches))
	for i, segs := range br.Branches {
		bp := br.Profile
		bp.Segments = segs
		if branches[i], err = bp.ToSegments(); err != nil {
			c.writeError(w, req, fmt.Errorf("branch %d: %w", i+1, err))
			return
		}
	}

	results, err := c.runner.EvaluateBranches(req.Context(), point, branches, c.config.BranchConcurrency)
	if err != nil {
		c.writeError(w, req, err)
		return
	}

	c.formatter.WriteResponse(w, req, http.StatusOK, BranchResponse{Base: base, Branches: results})
}

func (c *Controller) getRuns(w http.ResponseWriter, req *http.Request) {
	if c.store == nil {
		c.formatter.WriteResponse(w, req, http.StatusOK, []storage.RunSummary{})
		return
	}

	limit := 0
	if l := req.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			c.writeError(w, req, fmt.Errorf("%w: invalid limit %q", errBadRequest, l))
			return
		}
		limit = n
	}

	runs, err := c.store.ListRuns(req.Context(), limit)
	if err != nil {
		c.writeError(w, req, err)
		return
	}
	if runs == nil {
		runs = []storage.RunSummary{}
	}
	c.formatter.WriteResponse(w, req, http.StatusOK, runs)
}

func (c *Controller) getRun(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if c.store == nil {
		c.writeError(w, req, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id))
		return
	}

	tl, err := c.store.GetTimeline(req.Context(), id)
	if err != nil {
		c.writeError(w, req, err)
		return
	}
	c.formatter.WriteResponse(w, req, http.StatusOK, tl)
}

func (c *Controller) getConvert(w http.ResponseWriter, req *http.Request) {
	constants := buhlmann.DefaultConstants()
	q := req.URL.Query()

	var resp ConversionResponse
	switch {
	case q.Get("depth") != "":
		depth, err := strconv.ParseFloat(q.Get("depth"), 64)
		if err != nil {
			c.writeError(w, req, fmt.Errorf("%w: invalid depth %q", errBadRequest, q.Get("depth")))
			return
		}
		resp = ConversionResponse{
			Depth:            depth,
			GaugePressure:    buhlmann.DepthToPressure(depth),
			AbsolutePressure: constants.DepthToAbsolutePressure(depth),
		}
	case q.Get("pressure") != "":
		pressure, err := strconv.ParseFloat(q.Get("pressure"), 64)
		if err != nil {
			c.writeError(w, req, fmt.Errorf("%w: invalid pressure %q", errBadRequest, q.Get("pressure")))
			return
		}
		resp = ConversionResponse{
			Depth:            buhlmann.PressureToDepth(pressure),
			GaugePressure:    pressure,
			AbsolutePressure: pressure + constants.SurfacePressure,
		}
	default:
		c.writeError(w, req, fmt.Errorf("%w: depth or pressure is required", errBadRequest))
		return
	}
	c.formatter.WriteResponse(w, req, http.StatusOK, resp)
}

func (c *Controller) runProfile(req *http.Request, p *config.ProfileData) (*profile.Timeline, *buhlmann.ModelPoint, error) {
	segments, err := p.ToSegments()
	if err != nil {
		return nil, nil, err
	}
	model, err := buhlmann.LookupModel(p.ModelName())
	if err != nil {
		return nil, nil, err
	}
	return c.runner.Run(req.Context(), p.Name, model, p.Constants(), segments)
}

func (c *Controller) save(req *http.Request, tl *profile.Timeline) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.SaveTimeline(req.Context(), tl); err != nil {
		return fmt.Errorf("failed to save timeline: %w", err)
	}
	return nil
}

func decodeBody(w http.ResponseWriter, req *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// statusFor maps model, profile and storage errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, config.ErrInvalidProfile),
		errors.Is(err, profile.ErrNegativeDepth),
		errors.Is(err, buhlmann.ErrUnknownModel),
		errors.Is(err, buhlmann.ErrNoInertGas),
		errors.Is(err, buhlmann.ErrZeroDuration),
		errors.Is(err, buhlmann.ErrInvalidGradientFactor),
		errors.Is(err, buhlmann.ErrInvalidGasMix):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (c *Controller) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.logger.Errorf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	c.formatter.WriteError(w, req, status, err)
}
