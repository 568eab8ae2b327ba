package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

// Climate is the read model served by the API. domain.ClimateContext
// implements it.
type Climate interface {
	CheckReadiness(ctx context.Context) error
	Dataset() *grid.Dataset
	Fires() []domain.FireEvent
	Periods() []grid.YearMonth
	Threshold() (*domain.GlobalThreshold, error)
	EvaluateMonth(year int, month time.Month) (domain.Evaluation, error)
	Layer(year int, month time.Month, v domain.Variable) (domain.Layer, error)
}

// HistoricalRange bounds the climatology shown next to a yearly trend.
type HistoricalRange struct {
	StartYear int
	EndYear   int
}

// API serves the risk evaluation routes under /api/v1.
type API struct {
	climate    Climate
	geocoder   domain.Geocoder
	historical HistoricalRange
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewAPI creates the route handlers. A nil geocoder leaves regions unnamed.
func NewAPI(climate Climate, geocoder domain.Geocoder, historical HistoricalRange, logger *slog.Logger) *API {
	return &API{
		climate:    climate,
		geocoder:   geocoder,
		historical: historical,
		validate:   newValidator(),
		logger:     logger,
	}
}

// RegisterRoutes mounts the API on r.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/periods", a.handlePeriods)
	r.Get("/threshold", a.handleThreshold)
	r.Get("/evaluation", a.handleEvaluation)
	r.Get("/layers/{variable}", a.handleLayer)
	r.Get("/trends/{variable}", a.handleTrend)
	r.Get("/fires", a.handleFires)
}

type periodsResponse struct {
	Periods []grid.YearMonth `json:"periods"`
	Latest  *grid.YearMonth  `json:"latest"`
}

func (a *API) handlePeriods(w http.ResponseWriter, _ *http.Request) {
	periods := a.climate.Periods()
	resp := periodsResponse{Periods: periods}
	if n := len(periods); n > 0 {
		resp.Latest = &periods[n-1]
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (a *API) handleThreshold(w http.ResponseWriter, _ *http.Request) {
	g, err := a.climate.Threshold()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, g)
}

type evaluationResponse struct {
	domain.Evaluation
	Requested grid.YearMonth `json:"requested"`
}

func (a *API) handleEvaluation(w http.ResponseWriter, r *http.Request) {
	year, month, ok := a.period(w, r)
	if !ok {
		return
	}
	ev, err := a.climate.EvaluateMonth(year, month)
	if err != nil {
		a.writeDomainError(w, "evaluation failed", err)
		return
	}
	ev.Regions = domain.NameRegions(r.Context(), ev.Regions, a.geocoder, a.logger)
	sharedobs.WriteJSON(w, http.StatusOK, evaluationResponse{
		Evaluation: ev,
		Requested:  grid.YearMonth{Year: year, Month: month},
	})
}

func (a *API) handleLayer(w http.ResponseWriter, r *http.Request) {
	v, ok := a.variable(w, r)
	if !ok {
		return
	}
	year, month, ok := a.period(w, r)
	if !ok {
		return
	}
	layer, err := a.climate.Layer(year, month, v)
	if err != nil {
		a.writeDomainError(w, "layer failed", err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, layer)
}

type trendResponse struct {
	Variable   domain.Variable         `json:"variable"`
	Label      string                  `json:"label"`
	Year       int                     `json:"year"`
	Yearly     []domain.TrendPoint     `json:"yearly"`
	StartYear  int                     `json:"historical_start_year"`
	EndYear    int                     `json:"historical_end_year"`
	Historical []domain.MonthlyAverage `json:"historical"`
}

func (a *API) handleTrend(w http.ResponseWriter, r *http.Request) {
	v, ok := a.variable(w, r)
	if !ok {
		return
	}
	year, given, err := parseYear(r.URL.Query(), a.validate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !given {
		year = a.latest().Year
	}

	ds := a.climate.Dataset()
	yearly := domain.YearlyTrend(ds, ds.TimeAxis, v, year, a.logger)
	if yearly == nil {
		yearly = []domain.TrendPoint{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, trendResponse{
		Variable:   v,
		Label:      v.Label(),
		Year:       year,
		Yearly:     yearly,
		StartYear:  a.historical.StartYear,
		EndYear:    a.historical.EndYear,
		Historical: domain.HistoricalAverage(ds, ds.TimeAxis, v, a.historical.StartYear, a.historical.EndYear, a.logger),
	})
}

type fireResponse struct {
	domain.FireEvent
	Conditions *domain.FireConditions `json:"conditions"`
}

type firesResponse struct {
	Period grid.YearMonth `json:"period"`
	Fires  []fireResponse `json:"fires"`
}

func (a *API) handleFires(w http.ResponseWriter, r *http.Request) {
	year, month, ok := a.period(w, r)
	if !ok {
		return
	}

	ds := a.climate.Dataset()
	fires := domain.FiresInMonth(a.climate.Fires(), year, month)
	out := make([]fireResponse, 0, len(fires))
	for _, f := range fires {
		resp := fireResponse{FireEvent: f}
		cond, err := domain.FireWeather(ds, f)
		if err != nil {
			a.logger.Debug("no weather for fire", "date", f.Date, "lat", f.Lat, "lon", f.Lon, "error", err)
		} else {
			resp.Conditions = &cond
		}
		out = append(out, resp)
	}
	sharedobs.WriteJSON(w, http.StatusOK, firesResponse{
		Period: grid.YearMonth{Year: year, Month: month},
		Fires:  out,
	})
}

// period resolves the requested month, defaulting to the latest available.
// It writes a 400 and returns false on bad input.
func (a *API) period(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	year, month, given, err := parsePeriod(r.URL.Query(), a.validate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return 0, 0, false
	}
	if !given {
		latest := a.latest()
		return latest.Year, latest.Month, true
	}
	return year, month, true
}

func (a *API) latest() grid.YearMonth {
	periods := a.climate.Periods()
	if len(periods) == 0 {
		return grid.YearMonth{}
	}
	return periods[len(periods)-1]
}

func (a *API) variable(w http.ResponseWriter, r *http.Request) (domain.Variable, bool) {
	name := chi.URLParam(r, "variable")
	v, ok := domain.ParseVariable(name)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown variable "+name))
		return "", false
	}
	return v, true
}

func (a *API) writeDomainError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingVariable):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, grid.ErrIndexOutOfRange):
		writeError(w, http.StatusNotFound, err)
	default:
		a.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New(msg))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
